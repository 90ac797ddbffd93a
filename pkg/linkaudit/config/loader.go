package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/linkaudit/pkg/linkaudit"
	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/metrics"
)

// Loader reads the settings and input tables and builds a session
type Loader struct {
	ConfigPath     string
	EmbeddingsPath string
	LinksPath      string // optional
	Logger         *zap.Logger
	Metrics        *metrics.Collectors
}

// Components holds a loaded run
type Components struct {
	Settings Settings
	Session  *linkaudit.Session
	Sources  []string // pages selected by the filters
}

// Filtered reports whether Sources applies. A filtered run with no
// matching page has nothing to analyse.
func (c *Components) Filtered() bool { return c.Settings.Filters.Active() }

// Load reads the configuration (Default when ConfigPath is empty) and opens
// the session.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	settings := Default()
	if l.ConfigPath != "" {
		s, err := Load(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		settings = s
	}
	return l.LoadWith(ctx, settings)
}

// LoadWith opens the session with already resolved settings.
func (l *Loader) LoadWith(ctx context.Context, settings Settings) (*Components, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if l.EmbeddingsPath == "" {
		return nil, fmt.Errorf("embeddings file is required: %w", internalerr.ErrInvalidInput)
	}

	session, err := linkaudit.Open(ctx, l.EmbeddingsPath, l.LinksPath, linkaudit.Options{
		Workers:          settings.Similarity.Workers,
		LowLinkThreshold: settings.Incoming.LowLinkThreshold,
		MinClusterSize:   settings.Theme.MinClusterSize,
		Logger:           l.Logger,
		Metrics:          l.Metrics,
	})
	if err != nil {
		return nil, err
	}

	comp := &Components{Settings: settings, Session: session}
	if settings.Filters.Active() {
		// invalid patterns are logged by the session and fall back to all pages
		comp.Sources, _ = session.SelectURLs(settings.Filters.Criteria(), settings.Filters.Regex)
	}
	return comp, nil
}
