package daemon

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/4ug-aug/presentor/internal/agent"
	"github.com/4ug-aug/presentor/internal/assets"
	"github.com/4ug-aug/presentor/internal/config"
	"github.com/4ug-aug/presentor/internal/deck"
	"github.com/4ug-aug/presentor/internal/llm/configbuilder"
	"github.com/4ug-aug/presentor/internal/observability"
	agentrpc "github.com/4ug-aug/presentor/internal/rpc/agent"
	deckrpc "github.com/4ug-aug/presentor/internal/rpc/deck"
	toolsrpc "github.com/4ug-aug/presentor/internal/rpc/tools"
	"github.com/4ug-aug/presentor/internal/tools"
	"github.com/4ug-aug/presentor/internal/transcript"
)

// Server hosts the daemon: agent run streaming, approvals, the presentation
// library surface, health, and metrics.
type Server struct {
	cfg        *config.Config
	logger     *zap.Logger
	runner     *agentrpc.AgentRunner
	approve    *agentrpc.ApproveHandler
	deckRPC    *deckrpc.Handler
	metrics    *observability.Metrics
	assets     *assets.Store
	tools      *tools.Registry
	transcript *transcript.DB
}

// NewServer constructs a daemon instance and opens its storage.
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	registry, err := configbuilder.BuildRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	root := cfg.Storage.Root
	if root == "" {
		root, err = deck.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolve storage root: %w", err)
		}
	}

	metrics := observability.NewMetrics()
	library := deck.NewLibrary(root)
	doc := deck.NewDocument(deck.Presentation{})
	store := assets.NewStore(filepath.Join(root, "images"), "/images")
	toolRegistry := tools.NewRegistry(doc, store)
	executor := tools.NewExecutor(toolRegistry, logger)
	loop := agent.NewLoop(registry, toolRegistry, executor, cfg.Agent, logger)

	db, err := transcript.Open(ctx, filepath.Join(root, "presentor.db"))
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}

	approvals := agentrpc.NewApprovals()
	runner := &agentrpc.AgentRunner{
		Loop:       loop,
		Approvals:  approvals,
		Transcript: db,
		Metrics:    metrics,
		Logger:     logger,
	}
	approve := &agentrpc.ApproveHandler{
		Loop:       loop,
		Approvals:  approvals,
		Transcript: db,
		Metrics:    metrics,
		Logger:     logger,
	}
	deckHandler := &deckrpc.Handler{
		Library: library,
		Doc:     doc,
		Assets:  store,
		Logger:  logger,
	}

	return &Server{
		cfg:        cfg,
		logger:     logger,
		runner:     runner,
		approve:    approve,
		deckRPC:    deckHandler,
		metrics:    metrics,
		assets:     store,
		tools:      toolRegistry,
		transcript: db,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (s *Server) Run(ctx context.Context) error {
	defer s.transcript.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.Handle("/agent/approve", s.approve)
	mux.Handle("/tools/schemas", toolsrpc.SchemaHandler{Registry: s.tools})
	s.deckRPC.Register(mux)
	// reference URLs embedded in slide HTML resolve against this prefix
	mux.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(s.assets.Dir()))))

	switch strings.ToLower(strings.TrimSpace(s.cfg.Server.Transport)) {
	case "ndjson":
		mux.Handle("/agent/run", agentrpc.NewHandler(s.runner, s.metrics))
	default:
		path, handler := agentrpc.NewConnectHandler(s.runner, s.metrics)
		mux.Handle(path, handler)
		// keep the NDJSON path available for plain HTTP clients
		mux.Handle("/agent/run", agentrpc.NewHandler(s.runner, s.metrics))
	}

	handler := http.Handler(mux)
	if strings.ToLower(strings.TrimSpace(s.cfg.Server.Transport)) != "ndjson" {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting presentor daemon", zap.String("addr", s.cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down presentor daemon")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.MetricsEnabled {
		http.NotFound(w, r)
		return
	}

	promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
