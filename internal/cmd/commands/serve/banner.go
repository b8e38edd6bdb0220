package serve

import (
	"fmt"

	"github.com/mitchellh/cli"

	"github.com/docuhash/docuhash/internal/config"
	"github.com/docuhash/docuhash/internal/version"
)

// printBanner shows the startup summary.
func printBanner(ui cli.Ui, cfg *config.Config, serverURL string) {
	ui.Output("")
	ui.Output(fmt.Sprintf("docuhash v%s", version.Version))
	ui.Output("")
	switch cfg.Storage.Backend {
	case config.BackendFilesystem:
		ui.Output(fmt.Sprintf("  Storage:  filesystem (%s)", cfg.Storage.DataDir))
	case config.BackendS3:
		ui.Output(fmt.Sprintf("  Storage:  s3 (bucket %s)", cfg.Storage.S3.Bucket))
	case config.BackendMemory:
		ui.Output("  Storage:  memory (records are not persisted)")
	}
	ui.Output(fmt.Sprintf("  Server:   %s", serverURL))
	ui.Output("")
	ui.Output("  Press Ctrl+C to stop")
	ui.Output("")
}
