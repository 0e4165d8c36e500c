// Package wiring assembles the board service stack for a workspace.
package wiring

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/kanbn/internal/infrastructure/config"
	"github.com/felixgeelhaar/kanbn/internal/infrastructure/telemetry"
	"github.com/felixgeelhaar/kanbn/pkg/application"
	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
	"github.com/felixgeelhaar/kanbn/pkg/domain/events"
	"github.com/felixgeelhaar/kanbn/pkg/storage"
)

// Overrides are per-invocation settings that win over kanbn.yaml and the
// environment. Empty fields leave the loaded value alone.
type Overrides struct {
	BoardPath string
	LogLevel  string
	LogFormat string
	LogOutput io.Writer
}

// Services exposes the application layer wired to one workspace.
type Services struct {
	Config    *config.Config
	Root      string
	Repo      *storage.FilesystemRepository
	Board     *application.BoardService
	Events    *events.Dispatcher
	Logger    *slog.Logger
	Telemetry *telemetry.Provider

	tracer trace.Tracer
	vocab  board.TagVocabulary
}

// BuildServices loads the workspace config under root and constructs the
// repository, dispatcher and board service.
func BuildServices(ctx context.Context, root string, o Overrides) (*Services, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}

	out := o.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger, err := config.NewLogger(cfg, out)
	if err != nil {
		return nil, err
	}

	provider, err := telemetry.Init(ctx, telemetry.Config{
		Exporter: cfg.Trace.Exporter,
		Endpoint: cfg.Trace.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	dispatcher := events.NewDispatcher()
	dispatcher.Register(events.NewLoggingHandler(logger).Registration())

	s := &Services{
		Config:    cfg,
		Root:      root,
		Events:    dispatcher,
		Logger:    logger,
		Telemetry: provider,
		tracer:    provider.Tracer,
		vocab:     board.DefaultVocabulary(),
	}
	s.Repo = storage.NewFilesystemRepository(cfg.ResolveBoardPath(root, o.BoardPath))
	s.Board = s.serviceFor(s.Repo)
	return s, nil
}

// ForBoard returns a board service for another board directory sharing
// this workspace's logger, dispatcher and tracer. An empty path returns
// the default service.
func (s *Services) ForBoard(path string) *application.BoardService {
	if path == "" {
		return s.Board
	}
	resolved := s.Config.ResolveBoardPath(s.Root, path)
	if resolved == s.Repo.Path() {
		return s.Board
	}
	return s.serviceFor(storage.NewFilesystemRepository(resolved))
}

// Close flushes telemetry.
func (s *Services) Close(ctx context.Context) error {
	return s.Telemetry.Shutdown(ctx)
}

func (s *Services) serviceFor(repo *storage.FilesystemRepository) *application.BoardService {
	return application.NewBoardService(repo,
		application.WithLogger(s.Logger),
		application.WithPublisher(s.Events),
		application.WithTracer(s.tracer),
		application.WithVocabulary(s.vocab),
	)
}
