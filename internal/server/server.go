package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/farman-pharma/apiserver/config"
	"github.com/farman-pharma/apiserver/internal/captcha"
	"github.com/farman-pharma/apiserver/internal/db"
	"github.com/farman-pharma/apiserver/internal/handlers"
	"github.com/farman-pharma/apiserver/internal/mailer"
	"github.com/farman-pharma/apiserver/internal/mq"
	"github.com/farman-pharma/apiserver/internal/services"
	"github.com/farman-pharma/apiserver/internal/storage"
	"github.com/farman-pharma/apiserver/internal/store"
)

// Server wraps the HTTP server, router, and the process-wide resources
// they depend on: the database pool, the media host client, and the
// message broker.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
	log        zerolog.Logger
	cancelSubs context.CancelFunc
}

// New constructs a fully wired Server.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Server, error) {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend, err := newStorageBackend(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	media := storage.NewMediaStore(backend, cfg.Storage.Folder, cfg.Storage.PublicBaseURL, log)
	if err := media.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("ensure media bucket: %w", err)
	}

	broker, err := newBroker(ctx, cfg.MQ, log)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	noteRepo := store.NewNoteRepository(dbConn)
	resourceRepo := store.NewResourceRepository(dbConn)

	userService := services.NewUserService(userRepo, noteRepo, resourceRepo)
	noteService := services.NewNoteService(noteRepo, media, log)
	resourceService := services.NewResourceService(resourceRepo, media, log)

	mailRelay := mailer.New(cfg.SMTP, log)
	var publisher services.Publisher
	if broker != nil {
		publisher = broker
	}
	contactService := services.NewContactService(publisher, mailRelay, log)
	verifier := captcha.New(cfg.Captcha.VerifyURL, cfg.Captcha.Secret)

	authHandler := handlers.NewAuthHandler(userService, cfg.Auth.JWTSecret, cfg.Auth.GoogleClientID)
	authMiddleware := authHandler.RequireAuth

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger(log),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Route("/notes", func(r chi.Router) {
		handlers.NoteRouter(r, noteService, authMiddleware)
	})
	router.Route("/resources", func(r chi.Router) {
		handlers.ResourceRouter(r, resourceService, authMiddleware)
	})
	router.Route("/blogs", func(r chi.Router) {
		handlers.BlogRouter(r, resourceService)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, authMiddleware)
	})
	router.Route("/contact", func(r chi.Router) {
		r.Use(httprate.LimitByIP(5, time.Minute))
		handlers.ContactRouter(r, contactService, verifier)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srv := &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
		log:        log,
	}

	if broker != nil {
		subCtx, cancel := context.WithCancel(context.Background())
		srv.cancelSubs = cancel
		go func() {
			if err := mailRelay.Run(subCtx, broker); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("contact mail subscriber stopped")
			}
		}()
	}

	return srv, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.cancelSubs != nil {
		s.cancelSubs()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func newStorageBackend(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStorage, error) {
	switch strings.ToLower(cfg.Backend) {
	case "minio", "":
		return storage.NewMinioClient(cfg.Minio)
	case "gcs":
		return storage.NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func newBroker(ctx context.Context, cfg config.MQConfig, log zerolog.Logger) (*mq.MQ, error) {
	switch strings.ToLower(cfg.Backend) {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend, log), nil
	case "pubsub":
		backend, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(backend, log), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
