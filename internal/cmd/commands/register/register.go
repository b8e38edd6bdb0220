package register

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/docuhash/docuhash/internal/cmd/base"
	"github.com/docuhash/docuhash/internal/config"
	"github.com/docuhash/docuhash/pkg/registry"
	"github.com/docuhash/docuhash/pkg/registry/store/fsstore"
	"github.com/docuhash/docuhash/pkg/registry/store/s3store"
)

type Command struct {
	*base.Command

	flagConfig    string
	flagDir       string
	flagFile      string
	flagHashCode  string
	flagType      string
	flagUser      string
	flagClient    string
	flagOverwrite bool
}

func (c *Command) Synopsis() string {
	return "Register a document's hash metadata"
}

func (c *Command) Help() string {
	return `Usage: docuhash register -user=<app> -file=<document>

  Hash a document and register it in the store. When no hash code is
  given, a fresh one is generated for the given type prefix.

  Examples:

    docuhash register -user=billing_app -type=CM -file=./contract.pdf
    docuhash register -user=billing_app -hash-code=CM-A1B2C3D4E5F6 \
        -file=./contract.pdf -client="Acme Corp"
` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("register", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to the config file",
	)
	f.StringVar(
		&c.flagDir, "dir", "",
		"Registry root directory, overrides the config file",
	)
	f.StringVar(
		&c.flagFile, "file", "", "(Required) Path to the document to register",
	)
	f.StringVar(
		&c.flagHashCode, "hash-code", "",
		"Existing hash code to register under; generated when empty",
	)
	f.StringVar(
		&c.flagType, "type", "",
		"Document type prefix (CM, IA, CE, IR, OT), required without -hash-code",
	)
	f.StringVar(
		&c.flagUser, "user", "", "(Required) Owner namespace for the record",
	)
	f.StringVar(
		&c.flagClient, "client", "", "Client name stored with the record",
	)
	f.BoolVar(
		&c.flagOverwrite, "overwrite", false,
		"Replace an existing registration for the same hash code",
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

	if c.flagFile == "" {
		ui.Error("file flag is required")
		return 1
	}
	if c.flagUser == "" {
		ui.Error("user flag is required")
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
	if c.flagDir != "" {
		cfg.Storage.Backend = config.BackendFilesystem
		cfg.Storage.DataDir = c.flagDir
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "docuhash",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	content, err := os.ReadFile(c.flagFile)
	if err != nil {
		ui.Error(fmt.Sprintf("error reading document: %v", err))
		return 1
	}
	info, err := os.Stat(c.flagFile)
	if err != nil {
		ui.Error(fmt.Sprintf("error reading document: %v", err))
		return 1
	}

	ctx := context.Background()
	store, err := newStore(ctx, cfg, log)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing storage: %v", err))
		return 1
	}
	service := registry.NewService(store, log)

	result, err := service.Register(ctx, registry.RegisterRequest{
		HashCode:       c.flagHashCode,
		TypePrefix:     c.flagType,
		OwnerNamespace: c.flagUser,
		ContentHash:    registry.ContentDigest(content),
		ClientName:     c.flagClient,
		FileName:       filepath.Base(c.flagFile),
		FileSize:       info.Size(),
		Overwrite:      c.flagOverwrite,
	})
	if err != nil {
		ui.Error(fmt.Sprintf("error registering document: %v", err))
		return 1
	}
	if !result.Success {
		ui.Error(fmt.Sprintf("Registration failed: %s", result.Message))
		return 1
	}

	ui.Output(fmt.Sprintf("Registered %s (short code %s)",
		result.HashCode, result.ShortCode))
	ui.Output(fmt.Sprintf("  Location: %s", result.Path))
	ui.Output(fmt.Sprintf("  Trace ID: %s", result.TraceID))
	return 0
}

func newStore(
	ctx context.Context, cfg *config.Config, log hclog.Logger,
) (registry.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendFilesystem:
		return fsstore.New(afero.NewOsFs(), cfg.Storage.DataDir, log)
	case config.BackendS3:
		return s3store.New(ctx, cfg.Storage.S3, log)
	case config.BackendMemory:
		return nil, fmt.Errorf("the memory backend does not persist records")
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}
