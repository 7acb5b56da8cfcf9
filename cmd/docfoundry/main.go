// Command docfoundry runs the document pipeline either as an HTTP service
// (serve) or as a one-shot terminal run (run).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/urfave/cli/v2"

	"github.com/docfoundry/docfoundry/artifact"
	"github.com/docfoundry/docfoundry/config"
	"github.com/docfoundry/docfoundry/core"
	"github.com/docfoundry/docfoundry/dispatch"
	"github.com/docfoundry/docfoundry/generate"
	"github.com/docfoundry/docfoundry/inference"
	"github.com/docfoundry/docfoundry/inference/anthropic"
	"github.com/docfoundry/docfoundry/inference/ollama"
	"github.com/docfoundry/docfoundry/inference/openai"
	"github.com/docfoundry/docfoundry/logging"
	"github.com/docfoundry/docfoundry/orchestrator"
	"github.com/docfoundry/docfoundry/server"
	"github.com/docfoundry/docfoundry/session"
)

func main() {
	app := &cli.App{
		Name:  "docfoundry",
		Usage: "turn engineering queries into documents via multi-domain analysis",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a TOML config file",
				EnvVars: []string{"DOCFOUNDRY_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serveAction,
			},
			{
				Name:      "run",
				Usage:     "run one query through the pipeline and print progress",
				ArgsUsage: "<query>",
				Action:    runAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	orch, cleanup, err := buildOrchestrator(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(orch, cfg.Server.Listen, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	return orch.Shutdown(ctx)
}

func runAction(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("usage: docfoundry run <query>")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	orch, cleanup, err := buildOrchestrator(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := c.Context
	id, err := orch.Submit(ctx, query, "")
	if err != nil {
		return err
	}
	fmt.Println("conversation:", id)

	events, err := orch.Subscribe(ctx, id)
	if err != nil {
		return err
	}
	for ev := range events {
		line := fmt.Sprintf("[%3d] %-18s %-10s", ev.Seq, ev.Step, ev.Status)
		if ev.Domain != "" {
			line += " " + string(ev.Domain)
		}
		if ev.Detail != "" {
			line += "  " + ev.Detail
		}
		fmt.Println(line)
	}

	summary, err := orch.Summary(id)
	if err != nil {
		return err
	}
	if !summary.Success {
		return fmt.Errorf("pipeline failed: %s", summary.Error)
	}
	fmt.Println("document type:", summary.DocumentType)
	fmt.Println("artifact:     ", summary.ArtifactPath)
	for _, p := range summary.PreviewPaths {
		fmt.Println("preview:      ", p)
	}
	return nil
}

func newLogger(cfg *config.Config) *logging.PipelineLogger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  parseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
}

func parseLevel(s string) logging.LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return logging.LogLevelDebug
	case "warn":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}

func buildOrchestrator(cfg *config.Config, logger logging.Logger) (*orchestrator.Orchestrator, func(), error) {
	backend, err := newBackend(cfg)
	if err != nil {
		return nil, nil, err
	}
	client := inference.NewRetryClient(backend, logger)

	var store core.SessionStore
	cleanup := func() {}
	if dsn := cfg.Pipeline.SessionDSN; dsn != "" {
		sqlStore, err := session.NewSQLiteStore(dsn)
		if err != nil {
			return nil, nil, err
		}
		store = sqlStore
		cleanup = func() { _ = sqlStore.Close() }
	} else {
		store = session.NewInMemoryStore()
	}

	snapshots, err := artifact.NewFSStore(filepath.Join(cfg.Pipeline.DataDir, "conversations"))
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	registry, err := dispatch.NewRegistry(generate.All(func(o *generate.Options) {
		o.OutputDir = cfg.Pipeline.DataDir
	})...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	orch := orchestrator.New(client, func(o *orchestrator.Options) {
		o.Domains = cfg.Domains()
		o.CallTimeout = cfg.Inference.Timeout
		o.Temperature = cfg.Inference.Temperature
		o.GracePeriod = cfg.Pipeline.GracePeriod
		o.SessionStore = store
		o.ArtifactStore = snapshots
		o.Registry = registry
		o.Logger = logger
	})
	return orch, cleanup, nil
}

func newBackend(cfg *config.Config) (inference.Client, error) {
	switch cfg.Inference.Backend {
	case "ollama":
		client, err := ollama.New(func(o *ollama.Options) {
			if cfg.Inference.URL != "" {
				o.ServerURL = cfg.Inference.URL
			}
			if cfg.Inference.Model != "" {
				o.Model = cfg.Inference.Model
			}
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "openai":
		return openai.New(func(o *openai.Options) {
			if cfg.Inference.Model != "" {
				o.Model = cfg.Inference.Model
			}
		}), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if cfg.Inference.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Inference.Model)
			}
		}), nil
	case "mock":
		return inference.NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown inference backend %q", cfg.Inference.Backend)
	}
}
