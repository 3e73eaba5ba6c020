// Package web serves the server-rendered Testcracker site: the landing page
// with the API status badge and the login and signup forms.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"testcracker/internal/middleware"
	"testcracker/internal/web/apiclient"
	"testcracker/pkg/logger"
	"testcracker/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const tokenCookie = "testcracker_token"

var features = []string{
	"Section-wise & full-length mocks",
	"Instant result & detailed analysis",
	"SSC pattern-based questions",
	"Works on mobile & desktop",
}

// API is the part of the Testcracker API the site talks to.
type API interface {
	Health(ctx context.Context) apiclient.HealthStatus
	Login(ctx context.Context, email, password string) (*apiclient.LoginResult, error)
	Register(ctx context.Context, name, email, password string) (*apiclient.User, error)
}

type Server struct {
	API  API
	tmpl *template.Template
	now  func() time.Time
}

func NewServer(api API) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{API: api, tmpl: tmpl, now: time.Now}, nil
}

type page struct {
	Title    string
	Year     int
	Health   *apiclient.HealthStatus
	Features []string

	Name    string
	Email   string
	Error   string
	Success string
}

func (s *Server) page(title string) page {
	return page{Title: title, Year: s.now().Year()}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), security.Secure())
	router.SetHTMLTemplate(s.tmpl)

	router.GET("/", s.Index)
	router.GET("/healthz", s.Healthz)
	router.GET("/login", s.LoginForm)
	router.POST("/login", s.Login)
	router.GET("/signup", s.SignupForm)
	router.POST("/signup", s.Signup)

	return router
}

// Index checks API health on every render; a failed check only changes the badge.
func (s *Server) Index(c *gin.Context) {
	status := s.API.Health(c.Request.Context())
	if !status.OK {
		logger.Log.Warn("API health check failed", zap.String("reason", status.Reason))
	}

	p := s.page("Testcracker | Mock tests for SSC and govt exams")
	p.Health = &status
	p.Features = features

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "index.html", p)
}

func (s *Server) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", s.page("Log in | Testcracker"))
}

func (s *Server) Login(c *gin.Context) {
	p := s.page("Log in | Testcracker")
	p.Email = strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	if p.Email == "" || password == "" {
		p.Error = "Email and password are required."
		c.HTML(http.StatusBadRequest, "login.html", p)
		return
	}

	res, err := s.API.Login(c.Request.Context(), p.Email, password)
	if err != nil {
		p.Error = errorMessage(err)
		c.HTML(errorStatus(err), "login.html", p)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, res.Token, 0, "/", "", c.Request.TLS != nil, true)
	p.Success = "Welcome back"
	if res.User != nil && res.User.Name != "" {
		p.Success += ", " + res.User.Name
	}
	p.Success += "!"
	c.HTML(http.StatusOK, "login.html", p)
}

func (s *Server) SignupForm(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", s.page("Sign up | Testcracker"))
}

func (s *Server) Signup(c *gin.Context) {
	p := s.page("Sign up | Testcracker")
	p.Name = strings.TrimSpace(c.PostForm("name"))
	p.Email = strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	if p.Name == "" || p.Email == "" || password == "" {
		p.Error = "Name, email and password are required."
		c.HTML(http.StatusBadRequest, "signup.html", p)
		return
	}

	if _, err := s.API.Register(c.Request.Context(), p.Name, p.Email, password); err != nil {
		p.Error = errorMessage(err)
		c.HTML(errorStatus(err), "signup.html", p)
		return
	}
	p.Success = "Account created. You can log in now."
	c.HTML(http.StatusCreated, "signup.html", p)
}

func errorMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	logger.Log.Error("API call failed", zap.Error(err))
	return "The service is unavailable right now. Please try again later."
}

// errorStatus passes 4xx replies through; anything else is a bad gateway.
func errorStatus(err error) int {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
