package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/linkaudit/pkg/linkaudit/filter"
	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
)

// Settings holds the tunables of an audit run
type Settings struct {
	TopK       int        `yaml:"top_k" mapstructure:"top_k"`
	Threshold  float64    `yaml:"threshold" mapstructure:"threshold"`
	Theme      Theme      `yaml:"theme" mapstructure:"theme"`
	Incoming   Incoming   `yaml:"incoming" mapstructure:"incoming"`
	Similarity Similarity `yaml:"similarity" mapstructure:"similarity"`
	Filters    Filters    `yaml:"filters" mapstructure:"filters"`
	Server     Server     `yaml:"server" mapstructure:"server"`
	Log        Log        `yaml:"log" mapstructure:"log"`
}

type Theme struct {
	Level          int     `yaml:"level" mapstructure:"level"`
	MinScore       float64 `yaml:"min_score" mapstructure:"min_score"`
	MinClusterSize int     `yaml:"min_cluster_size" mapstructure:"min_cluster_size"`
}

type Incoming struct {
	LowLinkThreshold int `yaml:"low_link_threshold" mapstructure:"low_link_threshold"`
}

type Similarity struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// Filters restricts the source pages of an analysis
type Filters struct {
	IncludeExact   []string `yaml:"include_exact" mapstructure:"include_exact"`
	IncludePartial []string `yaml:"include_partial" mapstructure:"include_partial"`
	ExcludeExact   []string `yaml:"exclude_exact" mapstructure:"exclude_exact"`
	ExcludePartial []string `yaml:"exclude_partial" mapstructure:"exclude_partial"`
	Regex          string   `yaml:"regex" mapstructure:"regex"`
}

// Criteria converts the path terms to filter criteria
func (f Filters) Criteria() filter.Criteria {
	return filter.Criteria{
		IncludeExact:   f.IncludeExact,
		IncludePartial: f.IncludePartial,
		ExcludeExact:   f.ExcludeExact,
		ExcludePartial: f.ExcludePartial,
	}
}

// Active reports whether any filter is set
func (f Filters) Active() bool {
	return !f.Criteria().Empty() || f.Regex != ""
}

type Server struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the settings used when nothing is configured
func Default() Settings {
	return Settings{
		TopK:      5,
		Threshold: 0.5,
		Theme: Theme{
			Level:          1,
			MinScore:       0.5,
			MinClusterSize: 2,
		},
		Incoming: Incoming{LowLinkThreshold: 7},
		Server:   Server{Addr: ":8080"},
		Log:      Log{Level: "info", Format: "console"},
	}
}

// Load reads settings from a YAML file on top of Default
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, s.Validate()
}

// Validate checks ranges
func (s Settings) Validate() error {
	switch {
	case s.TopK < 1:
		return invalid("top_k must be at least 1, got %d", s.TopK)
	case s.Threshold < -1 || s.Threshold > 1:
		return invalid("threshold must be within [-1, 1], got %g", s.Threshold)
	case s.Theme.MinScore < -1 || s.Theme.MinScore > 1:
		return invalid("theme.min_score must be within [-1, 1], got %g", s.Theme.MinScore)
	case s.Theme.Level < 1:
		return invalid("theme.level must be at least 1, got %d", s.Theme.Level)
	case s.Theme.MinClusterSize < 0:
		return invalid("theme.min_cluster_size must not be negative")
	case s.Incoming.LowLinkThreshold < 0:
		return invalid("incoming.low_link_threshold must not be negative")
	case s.Similarity.Workers < 0:
		return invalid("similarity.workers must not be negative")
	}
	switch s.Log.Format {
	case "", "console", "json":
	default:
		return invalid("log.format must be console or json, got %q", s.Log.Format)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), internalerr.ErrInvalidConfig)
}
