package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/docuhash/docuhash/internal/api"
	"github.com/docuhash/docuhash/internal/cmd/base"
	"github.com/docuhash/docuhash/internal/config"
	"github.com/docuhash/docuhash/internal/server"
	"github.com/docuhash/docuhash/pkg/registry"
	"github.com/docuhash/docuhash/pkg/registry/store/fsstore"
	"github.com/docuhash/docuhash/pkg/registry/store/memstore"
	"github.com/docuhash/docuhash/pkg/registry/store/s3store"
)

type Command struct {
	*base.Command

	flagConfig  string
	flagAddr    string
	flagBrowser bool
}

func (c *Command) Synopsis() string {
	return "Run the registry server"
}

func (c *Command) Help() string {
	return `Usage: docuhash serve
       docuhash serve -config=config.hcl

  Run the document hash registry server.

  Without a config file the server uses filesystem storage under ./output
  and listens on http://127.0.0.1:8000.
` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("serve", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the config file",
	)
	f.StringVar(
		&c.flagAddr, "addr", "", "Listen address, overrides the config file",
	)
	f.BoolVar(
		&c.flagBrowser, "browser", false,
		"Automatically open the server URL in a browser",
	)

	return f
}

func (c *Command) Run(args []string) int {
	ui := c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	var (
		cfg *config.Config
		err error
	)
	if c.flagConfig != "" {
		cfg, err = config.NewConfig(c.flagConfig)
		if err != nil {
			ui.Error(fmt.Sprintf("error parsing config file: %v", err))
			return 1
		}
	} else {
		cfg = config.Default()
	}
	if c.flagAddr != "" {
		cfg.Server.Addr = c.flagAddr
	}
	if err := cfg.Validate(); err != nil {
		ui.Error(fmt.Sprintf("invalid configuration: %v", err))
		return 1
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "docuhash",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	ctx := context.Background()
	store, err := newStore(ctx, cfg, log)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing storage: %v", err))
		return 1
	}

	srv := server.Server{
		Config:  cfg,
		Store:   store,
		Service: registry.NewService(store, log),
		Logger:  log,
	}

	mux := http.NewServeMux()
	registerEndpoints(mux, srv)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: mux,
	}

	serverURL := "http://" + cfg.Server.Addr
	printBanner(ui, cfg, serverURL)

	if c.flagBrowser {
		go func() {
			if err := waitForServer(serverURL, 10*time.Second); err != nil {
				ui.Warn(fmt.Sprintf("Server not ready, skipping browser launch: %v", err))
				return
			}
			if err := openBrowser(serverURL); err != nil {
				ui.Warn(fmt.Sprintf("Could not open browser: %v", err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ui.Error(fmt.Sprintf("server error: %v", err))
			return 1
		}
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			ui.Error(fmt.Sprintf("error during shutdown: %v", err))
			return 1
		}
	}

	return 0
}

// newStore builds the record store for the configured backend.
func newStore(
	ctx context.Context, cfg *config.Config, log hclog.Logger,
) (registry.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendFilesystem:
		return fsstore.New(afero.NewOsFs(), cfg.Storage.DataDir, log)
	case config.BackendS3:
		return s3store.New(ctx, cfg.Storage.S3, log)
	case config.BackendMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// registerEndpoints attaches all API handlers to the mux.
func registerEndpoints(mux *http.ServeMux, srv server.Server) {
	mux.Handle("/health", api.HealthHandler(srv))
	mux.Handle("/api/register", api.RegisterHandler(srv))
	mux.Handle("/api/verify/integrity", api.IntegrityHandler(srv))
	mux.Handle("/api/verify/", api.VerifyHandler(srv))
	mux.Handle("/api/search", api.SearchHandler(srv))
	mux.Handle("/api/stats", api.StatsHandler(srv))
	mux.Handle("/api/document-types", api.DocumentTypesHandler(srv))
}
