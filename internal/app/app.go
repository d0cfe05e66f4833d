package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-gallery/internal/config"
	"event-gallery/internal/db"
	"event-gallery/internal/handlers"
	"event-gallery/internal/services"
	"event-gallery/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Server holds what the HTTP routes need.
type Server struct {
	Photos    *services.PhotoService
	Auth      *services.AuthService
	Sessions  *session.Manager
	Hub       *handlers.Hub
	PublicDir string
	// BodyLimit bounds a whole multipart request.
	BodyLimit int
}

// NewFiberApp builds the fiber application with middleware and routes.
func NewFiberApp(s Server) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    s.BodyLimit,
		Views:        handlers.NewViews(),
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/", handlers.GalleryHandler(s.Photos, s.Sessions))
	app.Get("/photos", handlers.ListPhotosHandler(s.Photos))
	app.Post("/upload", handlers.UploadHandler(s.Photos, s.Hub))

	app.Post("/login", handlers.LoginHandler(s.Auth, s.Sessions))
	app.Post("/logout", handlers.LogoutHandler(s.Sessions))

	// Admin routes
	admin := handlers.AdminOnly(s.Auth, s.Sessions)
	deletePhoto := handlers.DeletePhotoHandler(s.Photos, s.Hub)
	app.Post("/delete-photo/:id", admin, deletePhoto)
	app.Delete("/delete-photo/:id", admin, deletePhoto)

	// Health Check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// WebSocket Route
	app.Use("/ws", handlers.WSUpgradeMiddleware)
	app.Get("/ws", handlers.WebSocketHandler(s.Hub))

	if s.PublicDir != "" {
		app.Static("/", s.PublicDir)
	}

	return app
}

func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	store, closeStore, err := openPhotoStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeStore()

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	storage, err := services.NewMinioStorage(services.MinioStorageConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
		PublicURL: cfg.Storage.PublicURL,
		Prefix:    cfg.Storage.Prefix,
		Timeout:   cfg.UpstreamTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to create object storage: %v", err)
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		log.Fatalf("Failed to prepare bucket: %v", err)
	}

	var moderator services.Moderator = services.AllowAllModerator{}
	if cfg.Moderation.Enabled {
		vm, err := services.NewVisionModerator(ctx, cfg.Moderation.CredentialsFile, cfg.UpstreamTimeout)
		if err != nil {
			log.Fatalf("Failed to create moderation client: %v", err)
		}
		defer vm.Close()
		moderator = vm
	} else {
		log.Warn("Content moderation is disabled")
	}

	processor := services.NewImageProcessor(services.ImageProcessorOptions{
		Mode:      services.ResizeMode(cfg.Upload.ResizeMode),
		MaxWidth:  cfg.Upload.MaxWidth,
		FitWidth:  cfg.Upload.FitWidth,
		FitHeight: cfg.Upload.FitHeight,
		Quality:   cfg.Upload.JPEGQuality,
	})

	photos := services.NewPhotoService(store, storage, moderator, processor, services.PhotoServiceOptions{
		MaxBatchFiles:    cfg.Upload.MaxBatchFiles,
		MaxFileSizeBytes: cfg.Upload.MaxFileSizeBytes,
		DedupMode:        cfg.Upload.DedupMode,
	})

	auth, err := services.NewAuthService(cfg.Auth.AdminPassword, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to configure admin login: %v", err)
	}

	var sessionStorage fiber.Storage
	if cfg.Auth.RedisURL != "" {
		rs, err := session.NewRedisStorage(cfg.Auth.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rs.Close()
		sessionStorage = rs
	}

	app := NewFiberApp(Server{
		Photos:    photos,
		Auth:      auth,
		Sessions:  session.NewManager(sessionStorage, cfg.Auth.SessionTTL, cfg.IsProduction()),
		Hub:       handlers.NewHub(),
		PublicDir: cfg.PublicDir,
		BodyLimit: cfg.Upload.MaxBatchFiles*cfg.Upload.MaxFileSizeBytes + 1024*1024,
	})

	// Start Server
	go func() {
		log.Infof("Server listening on port http://localhost:%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	// Graceful Shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c // Block until signal
	log.Info("Gracefully shutting down...")
	_ = app.ShutdownWithTimeout(10 * time.Second)
	log.Info("Server shutdown complete")
}

func openPhotoStore(ctx context.Context, cfg *config.Config) (services.PhotoStore, func(), error) {
	if cfg.Database.Driver == config.DriverSQLite {
		conn, err := db.OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("using SQLite database", "path", cfg.Database.SQLitePath)
		return services.NewSQLitePhotoStore(conn), func() { _ = conn.Close() }, nil
	}

	pool, err := db.Connect(ctx, cfg.Database.PostgresURL(), cfg.IsProduction())
	if err != nil {
		return nil, nil, err
	}
	return services.NewPostgresPhotoStore(pool), pool.Close, nil
}
