// Command web serves the Testcracker site. It needs NEXT_PUBLIC_API_BASE_URL
// (or API_BASE_URL) to reach the API; without it the status badge reports an issue.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"testcracker/internal/config"
	"testcracker/internal/web"
	"testcracker/internal/web/apiclient"
	"testcracker/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configDir := flag.String("config", "configs", "directory holding config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if cfg.Web.APIBaseURL == "" {
		logger.Log.Warn("API base URL is not set, the status badge will report an issue")
	}

	site, err := web.NewServer(apiclient.New(cfg.Web.APIBaseURL, cfg.Web.HealthTimeout))
	if err != nil {
		logger.Log.Fatal("Failed to load templates", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Web.Port,
		Handler:           site.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.Info("Web server running", zap.String("port", cfg.Web.Port), zap.String("api", cfg.Web.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Web server forced to shutdown", zap.Error(err))
	}
}
