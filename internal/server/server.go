package server

import (
	"github.com/hashicorp/go-hclog"

	"github.com/docuhash/docuhash/internal/config"
	"github.com/docuhash/docuhash/pkg/registry"
)

// Server contains the server configuration.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// Store is the registry storage backend (filesystem, S3, memory).
	Store registry.Store

	// Service is the registry service that handlers dispatch to.
	Service *registry.Service

	// Logger is the logger for the server.
	Logger hclog.Logger
}
