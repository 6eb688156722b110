package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"pdfstream/features/document"
	"pdfstream/features/job"
	"pdfstream/features/stats"
	"pdfstream/internal/config"
	"pdfstream/internal/middleware"
	"pdfstream/internal/pdf"
	"pdfstream/internal/queue"
	"pdfstream/internal/worker"
)

type App struct {
	Handler         http.Handler
	Pool            *worker.Pool
	DocumentService *document.Service

	port int
}

// New wires the application from its externally-constructed dependencies.
// Everything downstream receives its collaborators explicitly; nothing
// reaches into globals.
func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore worker.VectorStore,
	pub worker.EventPublisher,
	embedder worker.Embedder,
	fetcher worker.Fetcher,
) (*App, error) {
	q := queue.NewPostgresQueue(db, cfg.LeaseTimeout())

	// Feature: Document
	documentService := document.NewService(q, pub, queue.Options{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BackoffBase(),
	})
	documentHandler := document.NewHandler(documentService)

	// Feature: Job (dead letters)
	jobService := job.NewService(q, pub)
	jobHandler := job.NewHandler(jobService)

	// Feature: Stats
	statsHandler := stats.NewHandler(q)

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /documents", middleware.CorrelationID(http.HandlerFunc(documentHandler.Create)))
	mux.Handle("GET /documents/{id}", middleware.CorrelationID(http.HandlerFunc(documentHandler.Get)))

	mux.Handle("GET /jobs/dead", middleware.CorrelationID(http.HandlerFunc(jobHandler.List)))
	mux.Handle("POST /jobs/dead/{id}/retry", middleware.CorrelationID(http.HandlerFunc(jobHandler.Retry)))

	mux.Handle("GET /stats", middleware.CorrelationID(http.HandlerFunc(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Worker pool
	processor := worker.NewProcessor(fetcher, pdf.NewDocconvExtractor(), embedder, vecStore, worker.ProcessorConfig{
		Collection:   cfg.Collection,
		FetchTimeout: cfg.FetchTimeout(),
		EmbedTimeout: cfg.EmbedTimeout(),
		StoreTimeout: cfg.StoreTimeout(),
	})
	pool := worker.NewPool(q, processor, pub, cfg.WorkerConcurrency, cfg.PollInterval())

	return &App{
		Handler:         mux,
		Pool:            pool,
		DocumentService: documentService,
		port:            cfg.ServerPort,
	}, nil
}

// Run serves HTTP and the worker pool until ctx is cancelled or either side
// fails. A pool failure takes the server down with it so the process
// restarts whole.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.port),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		slog.Info("server starting", "port", a.port)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return a.Pool.Run(ctx)
	})

	return g.Wait()
}
