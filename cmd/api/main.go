//	@title			Vitrine API
//	@version		1.0
//	@description	Backend for Vitrine: sign-in, file storage, and an image gallery on a hosted auth/storage platform.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token from /auth/signin. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/navidved/vitrine/internal/auth"
	"github.com/navidved/vitrine/internal/config"
	"github.com/navidved/vitrine/internal/db"
	"github.com/navidved/vitrine/internal/files"
	"github.com/navidved/vitrine/internal/gallery"
	"github.com/navidved/vitrine/internal/listing"
	"github.com/navidved/vitrine/internal/logging"
	appMiddleware "github.com/navidved/vitrine/internal/middleware"
	"github.com/navidved/vitrine/internal/platform"
	"github.com/navidved/vitrine/internal/response"
	"github.com/navidved/vitrine/internal/session"
	"github.com/navidved/vitrine/internal/upload"
	"github.com/navidved/vitrine/internal/user"

	_ "github.com/navidved/vitrine/docs/swagger"
)

func main() {
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session persistence
	var store auth.SessionStore
	switch cfg.SessionStore {
	case "memory":
		store = auth.NewMemoryStore()
		log.Warn(ctx, "sessions are kept in memory and will not survive a restart")
	default:
		pool, err := db.Connect(ctx, cfg.DatabaseURL, 10*time.Second, log)
		if err != nil {
			log.Error(ctx, "database connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, cfg.DatabaseURL, log); err != nil {
			log.Error(ctx, "database migration failed", "error", err)
			os.Exit(1)
		}
		store = auth.NewRepository(pool)
	}

	// Platform handles. Neither touches the network until first use, and a
	// missing configuration is retried on every request.
	public := platform.NewAccessor(config.LoadPlatform, log)
	admin := platform.NewAdminAccessor(config.LoadPlatform, log)

	// The memory driver lives inside one client, so bootstrap the one requests use.
	var bootstrap platform.Source = admin
	if cfg.Platform.StorageDriver == "memory" {
		bootstrap = public
	}
	if err := platform.EnsureBuckets(ctx, bootstrap, log,
		upload.AvatarsBucket, upload.UserFilesBucket, upload.GalleryBucket); err != nil {
		log.Warn(ctx, "bucket bootstrap incomplete", "error", err)
	}

	// Wire dependencies: platform → services → handlers
	listingSvc := listing.NewService(public, log)
	uploads := upload.NewCoordinator(public, listingSvc, log)
	viewer := gallery.NewViewer(listingSvc, uploads, log)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	sessions := session.NewManager(session.PlatformFactory(public, store), store, log)
	defer sessions.Close()

	sessionHandler := session.NewHandler(sessions, tokens, log)
	userHandler := user.NewHandler(user.NewService(uploads))
	filesHandler := files.NewHandler(public, listingSvc, uploads, log)
	galleryHandler := gallery.NewHandler(viewer, log)

	limiter := appMiddleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	go housekeeping(ctx, sessions, limiter, cfg.SessionIdle, log)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI, available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	requireSession := appMiddleware.RequireSession(tokens, sessions)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Configuration banner
		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			response.OK(w, public.Status(r.Context()))
		})

		// Public auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Use(limiter.Handler)
			r.Post("/signup", sessionHandler.SignUp)
			r.Post("/signin", sessionHandler.SignIn)
			r.With(requireSession).Post("/signout", sessionHandler.SignOut)
		})

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Get("/session", sessionHandler.Current)
			r.Put("/session/page", sessionHandler.SetPage)

			r.Get("/users/me", userHandler.GetMe)
			r.Post("/users/me/avatar", userHandler.UploadAvatar)

			r.Route("/buckets/{bucket}/objects", func(r chi.Router) {
				r.Get("/", filesHandler.List)
				r.Post("/", filesHandler.Upload)
				r.Delete("/", filesHandler.Delete)
				r.Get("/download", filesHandler.Download)
			})
			r.Post("/images/process", filesHandler.Process)

			r.Route("/gallery", func(r chi.Router) {
				r.Get("/", galleryHandler.List)
				r.Post("/", galleryHandler.Upload)
				r.Delete("/", galleryHandler.Delete)
				r.Put("/overlay", galleryHandler.OpenOverlay)
				r.Delete("/overlay", galleryHandler.CloseOverlay)
			})
		})
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// Downloads stream whole objects.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info(ctx, "server listening", "port", cfg.Port, "env", cfg.AppEnv)
		log.Info(ctx, "swagger UI at http://localhost:"+cfg.Port+"/swagger/")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "forced shutdown", "error", err)
	}

	log.Info(shutdownCtx, "server stopped")
}

// housekeeping evicts idle session trackers and rate-limit visitors until ctx ends.
func housekeeping(ctx context.Context, sessions *session.Manager, limiter *appMiddleware.RateLimiter, idle time.Duration, log logging.Logger) {
	interval := idle / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(idle); n > 0 {
				log.Debug(ctx, "idle sessions evicted", "count", n)
			}
			limiter.Cleanup(idle)
		}
	}
}
