package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fdg312/insulin-calc/internal/auth"
	"github.com/fdg312/insulin-calc/internal/blob"
	"github.com/fdg312/insulin-calc/internal/config"
	"github.com/fdg312/insulin-calc/internal/dose"
	"github.com/fdg312/insulin-calc/internal/exports"
	"github.com/fdg312/insulin-calc/internal/storage"
	"github.com/fdg312/insulin-calc/internal/storage/memory"
	"github.com/fdg312/insulin-calc/internal/storage/objectkv"
	"github.com/fdg312/insulin-calc/internal/storage/postgres"
	"github.com/fdg312/insulin-calc/internal/storage/sqlite"
	"github.com/sirupsen/logrus"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	log            *logrus.Logger
	mux            *http.ServeMux
	storage        storage.Backend
	kvMode         string
	blobStore      blob.Store
	blobMode       string
	session        *dose.Session
	authMiddleware *auth.Middleware
}

// New создаёт новый HTTP сервер. A blob misconfiguration with BLOB_MODE=s3
// is returned as an error; storage connection failures fall back to memory.
func New(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		config: cfg,
		log:    logger,
		mux:    http.NewServeMux(),
	}

	if err := s.initBlobStore(); err != nil {
		return nil, err
	}
	s.initStorage(context.Background())

	repo := dose.NewRepository(s.storage.KV(), cfg.Dose)
	s.session = dose.NewSession(repo, logger)
	s.session.Load(context.Background())

	s.routes()
	return s, nil
}

func (s *Server) initBlobStore() error {
	store, mode, err := blob.NewBlobStore(s.config.Blob, s.log)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}
	s.blobStore = store
	s.blobMode = mode
	return nil
}

// initStorage выбирает KV-хранилище по KV_MODE.
// Any backend that fails to open falls back to memory.
func (s *Server) initStorage(ctx context.Context) {
	mode := s.config.ResolveKVMode()
	log := s.log.WithField("kv_mode", mode)

	switch mode {
	case config.KVModePostgres:
		log.Info("connecting to PostgreSQL")
		pg, err := postgres.New(ctx, s.config.DatabaseURL)
		if err != nil {
			log.WithError(err).Warn("PostgreSQL unavailable, fallback to in-memory storage")
			break
		}
		log.Info("PostgreSQL connected")
		s.storage, s.kvMode = pg, mode
		return

	case config.KVModeSQLite:
		log.WithField("path", s.config.SQLitePath).Info("opening SQLite database")
		db, err := sqlite.Open(s.config.SQLitePath)
		if err != nil {
			log.WithError(err).Warn("SQLite unavailable, fallback to in-memory storage")
			break
		}
		s.storage, s.kvMode = db, mode
		return

	case config.KVModeS3:
		if s.blobStore == nil {
			log.Warn("KV_MODE=s3 needs an object store (BLOB_MODE=s3|auto with S3_* set), fallback to in-memory storage")
			break
		}
		log.WithField("prefix", s.config.KVS3Prefix).Info("using object storage for calculator state")
		s.storage, s.kvMode = objectkv.New(s.blobStore, s.config.KVS3Prefix), mode
		return
	}

	log.Info("using in-memory storage")
	s.storage, s.kvMode = memory.New(), config.KVModeMemory
}

// routes регистрирует маршруты
func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API (no auth required)
	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService, s.log)

	// POST /v1/auth/dev - development token, AUTH_MODE=dev only
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Calculator
	doseHandler := dose.NewHandler(s.session)
	s.mux.HandleFunc("GET /v1/dose", doseHandler.HandleGet)
	s.mux.HandleFunc("PATCH /v1/dose/inputs", doseHandler.HandlePatchInputs)
	s.mux.HandleFunc("POST /v1/dose/refresh", doseHandler.HandleRefresh)
	s.mux.HandleFunc("POST /v1/dose/language/toggle", doseHandler.HandleToggleLanguage)
	s.mux.HandleFunc("PUT /v1/dose/language", doseHandler.HandleSetLanguage)
	s.mux.HandleFunc("POST /v1/dose/ratios/toggle", doseHandler.HandleToggleRatios)
	s.mux.HandleFunc("POST /v1/dose/calculate", doseHandler.HandleCalculate)

	// Exports
	presignTTL := s.config.Blob.S3.PresignTTLSeconds
	exportsService := exports.NewService(s.storage.Exports(), s.session, s.blobStore, presignTTL, s.log)
	exportsHandler := exports.NewHandlers(exportsService, s.config.ExportsMaxPerList)
	s.mux.HandleFunc("POST /v1/exports", exportsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/exports", exportsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/exports/{id}/download", exportsHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/exports/{id}", exportsHandler.HandleDelete)
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"kv_mode":   s.kvMode,
		"blob_mode": s.blobMode,
	})
}

// Handler builds the middleware chain (outermost first): CORS → Rate Limit → Auth → Router
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = s.authMiddleware.Handler(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Infof("server listening on http://localhost%s", addr)
	s.log.Infof("health check: http://localhost%s/healthz", addr)
	s.log.Infof("calculator API: http://localhost%s/v1/dose", addr)

	return srv.ListenAndServe()
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
