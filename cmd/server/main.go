package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/digitalforms/formlink/internal/config"
	"github.com/digitalforms/formlink/internal/database"
	"github.com/digitalforms/formlink/internal/handler"
	"github.com/digitalforms/formlink/internal/queue"
	"github.com/digitalforms/formlink/internal/repository"
	"github.com/digitalforms/formlink/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}
	created, err := database.EnsureAdmin(ctx, db, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("admin seed: %v", err)
	}
	if created {
		log.Printf("seeded initial admin account %q", cfg.AdminUsername)
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middlewares fail open
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	links := repository.NewLinkRepo(db)
	submissions := repository.NewSubmissionRepo(db)
	activity := repository.NewActivityRepo(db)

	authH := handler.NewAuthHandler(cfg, users, activity)
	linkH := handler.NewLinkHandler(cfg, links, activity)
	subH := handler.NewSubmissionHandler(db, links, submissions, activity)
	dashH := handler.NewDashboardHandler(users, links, submissions, activity)
	adminH := handler.NewAdminUserHandler(cfg, users, activity)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterPublic(e, linkH, subH, rdb, config.LoadCacheConfig(), config.LoadRateLimitConfig())
	router.RegisterAuth(e, authH, cfg.JWTSecret, users)
	router.RegisterAPI(e, linkH, subH, dashH, cfg.JWTSecret, users)
	router.RegisterAdmin(e, adminH, linkH, subH, dashH, cfg.JWTSecret, users)

	// Consumer keeps its own connection and reconnects on failure; the
	// API serves fine without the broker.
	go func() {
		if err := queue.StartSubmissionConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
