package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	config "github.com/postcraft/postcraft-api/configs"
	"github.com/postcraft/postcraft-api/internal/api/handlers"
	"github.com/postcraft/postcraft-api/internal/api/middleware"
	"github.com/postcraft/postcraft-api/internal/database"
	"github.com/postcraft/postcraft-api/internal/repository"
	"github.com/postcraft/postcraft-api/internal/service"
	applog "github.com/postcraft/postcraft-api/pkg/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Ten videos at the 15 MiB cap plus multipart overhead.
const uploadBodyLimit = 160 * 1024 * 1024

func main() {
	migrateDown := flag.Int("migrate-down", 0, "roll back N migrations and exit")
	flag.Parse()

	cfg := config.MustLoad()
	applog.New(cfg.AppEnv, cfg.LogLevel)

	if *migrateDown > 0 {
		if err := database.MigrateDown(cfg.PostgresURI, *migrateDown); err != nil {
			log.Fatal().Err(err).Msg("failed to roll back migrations")
		}
		log.Info().Int("steps", *migrateDown).Msg("migrations rolled back")
		return
	}

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.PostgresURI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer closeDB(db)

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.PostgresURI); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	s3Client, err := service.NewR2Client(ctx, cfg.R2)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build R2 client")
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    uploadBodyLimit,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(middleware.Metrics())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	r2Service := service.NewR2Service(cfg.R2, s3Client)
	mediaService := service.NewMediaService(r2Service, mediaAssetRepo)
	postService := service.NewPostService(postRepo, mediaAssetRepo)
	linkedInService := service.NewLinkedInService(*cfg, userRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	auth := handlers.NewAuthHandler(authService)
	authLimit := middleware.RateLimit(cfg.AuthRateLimit)
	app.Post("/auth/signup", authLimit, auth.Signup)
	app.Post("/auth/signin", authLimit, auth.Signin)

	linkedIn := handlers.NewLinkedInHandler(linkedInService, cfg.FrontendURL)
	app.Get("/connect/callback", linkedIn.Callback)

	api := app.Group("/api")
	api.Use(authMiddleware.Handler())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.Upload)
	api.Get("/media/assets", media.List)
	api.Get("/media/assets/:id", media.Get)
	api.Delete("/media/assets/:id", media.Delete)
	api.Post("/media/prepare-linkedin", media.PrepareLinkedIn)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", post.Create)
	api.Get("/posts", post.List)
	api.Get("/posts/:id", post.Get)
	api.Put("/posts/:id", post.Update)
	api.Delete("/posts/:id", post.Delete)

	api.Get("/connect", linkedIn.Connect)
	api.Get("/connect/status", linkedIn.Status)
	api.Post("/connect/disconnect", linkedIn.Disconnect)
	api.Get("/connect/test", linkedIn.Test)

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Str("addr", cfg.HTTPAddr).Msg("server is running")

	gracefulShutdown(app)
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close database")
		return
	}
	log.Info().Msg("database connection closed")
}

func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Info().Msg("shutting down server")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Error().Err(err).Msg("failed to shut down server")
	}
	log.Info().Msg("server shutdown complete")
}
