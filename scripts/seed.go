// Seeds an admin account and the exam catalogue from a YAML file. Existing
// users and exams are left untouched, so the script can be rerun safely.
//
// Usage: go run scripts/seed.go -file configs/seed.yaml

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"testcracker/internal/config"
	"testcracker/internal/model"
	"testcracker/internal/repository"
	"testcracker/internal/service"
	"testcracker/internal/util"
	"testcracker/pkg/cache"
	"testcracker/pkg/database"
	"testcracker/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Admin struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
	Exams []struct {
		Code        string `yaml:"code"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		DurationMin int    `yaml:"duration_min"`
		TotalMarks  int    `yaml:"total_marks"`
	} `yaml:"exams"`
}

func main() {
	file := flag.String("file", "configs/seed.yaml", "seed data")
	flag.Parse()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("Failed to parse seed file: %v", err)
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	users := service.NewUserService(repository.NewUserRepository(db))
	exams := service.NewExamService(repository.NewExamRepository(db), repository.NewAttemptRepository(db), cache.Nop{}, nil)

	if seed.Admin.Email != "" {
		_, err := users.Create(ctx, service.CreateUserInput{
			Name:     seed.Admin.Name,
			Email:    seed.Admin.Email,
			Password: seed.Admin.Password,
			Role:     model.RoleAdmin,
		})
		switch {
		case errors.Is(err, util.ErrEmailRegistered):
			logger.Log.Info("Admin already exists", zap.String("email", seed.Admin.Email))
		case err != nil:
			log.Fatalf("Failed to create admin: %v", err)
		default:
			logger.Log.Info("Admin created", zap.String("email", seed.Admin.Email))
		}
	}

	created := 0
	for _, e := range seed.Exams {
		in := service.ExamInput{
			Code:        e.Code,
			Name:        e.Name,
			DurationMin: e.DurationMin,
			TotalMarks:  e.TotalMarks,
		}
		if e.Description != "" {
			desc := e.Description
			in.Description = &desc
		}
		_, err := exams.Create(ctx, in)
		switch {
		case errors.Is(err, util.ErrExamCodeTaken):
			logger.Log.Info("Exam already exists", zap.String("code", e.Code))
		case err != nil:
			log.Fatalf("Failed to create exam %s: %v", e.Code, err)
		default:
			created++
		}
	}
	logger.Log.Info("Seeding finished", zap.Int("exams_created", created))
}
