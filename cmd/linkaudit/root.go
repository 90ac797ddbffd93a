package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cognicore/linkaudit/internal/logging"
	"github.com/cognicore/linkaudit/pkg/linkaudit/config"
	"github.com/cognicore/linkaudit/pkg/linkaudit/export"
	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/metrics"
)

// EnvPrefix prefixes every environment override, e.g. LINKAUDIT_TOP_K.
const EnvPrefix = "LINKAUDIT"

type appKey struct{}

// app carries what every subcommand needs.
type app struct {
	v        *viper.Viper
	settings config.Settings
	log      *zap.Logger
	metrics  *metrics.Collectors
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "linkaudit",
		Short:         "Find internal linking opportunities from page embeddings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(v)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a := appFrom(cmd); a != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "YAML settings file")
	pf.String("embeddings", "", "CSV with URL and Embeddings columns")
	pf.String("links", "", "CSV export of crawled links (optional)")
	pf.Int("top-k", 0, "similar pages kept per page")
	pf.Float64("threshold", 0, "minimum similarity for an opportunity")
	pf.Int("theme-level", 0, "path depth used as theme")
	pf.Float64("theme-min-score", 0, "minimum similarity in theme analysis")
	pf.Int("workers", 0, "similarity workers (0 = all cores)")
	pf.StringSlice("include-exact", nil, "keep URLs with one of these path segments")
	pf.StringSlice("include-partial", nil, "keep URLs whose path contains one of these terms")
	pf.StringSlice("exclude-exact", nil, "drop URLs with one of these path segments")
	pf.StringSlice("exclude-partial", nil, "drop URLs whose path contains one of these terms")
	pf.String("regex", "", "keep URLs matching this regular expression")
	pf.String("out", "", "output file (default stdout)")
	pf.String("format", string(export.CSV), "output format: csv or json")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-format", "", "console or json")

	// unset flags fall through to LINKAUDIT_* variables, the config file
	// and the defaults
	for key, flag := range map[string]string{
		"config":                  "config",
		"embeddings":              "embeddings",
		"links":                   "links",
		"top_k":                   "top-k",
		"threshold":               "threshold",
		"theme.level":             "theme-level",
		"theme.min_score":         "theme-min-score",
		"similarity.workers":      "workers",
		"filters.include_exact":   "include-exact",
		"filters.include_partial": "include-partial",
		"filters.exclude_exact":   "exclude-exact",
		"filters.exclude_partial": "exclude-partial",
		"filters.regex":           "regex",
		"out":                     "out",
		"format":                  "format",
		"log.level":               "log-level",
		"log.format":              "log-format",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	cmd.AddCommand(
		newSimilarityCommand(),
		newOpportunitiesCommand(),
		newIncomingCommand(),
		newDetailCommand(),
		newThemesCommand(),
		newBrokenCommand(),
		newAnchorsCommand(),
		newStructureCommand(),
		newReportCommand(),
		newServeCommand(v),
		newRunsCommand(),
	)
	return cmd
}

func setDefaults(v *viper.Viper, d config.Settings) {
	v.SetDefault("top_k", d.TopK)
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("theme.level", d.Theme.Level)
	v.SetDefault("theme.min_score", d.Theme.MinScore)
	v.SetDefault("theme.min_cluster_size", d.Theme.MinClusterSize)
	v.SetDefault("incoming.low_link_threshold", d.Incoming.LowLinkThreshold)
	v.SetDefault("similarity.workers", d.Similarity.Workers)
	v.SetDefault("filters.include_exact", []string{})
	v.SetDefault("filters.include_partial", []string{})
	v.SetDefault("filters.exclude_exact", []string{})
	v.SetDefault("filters.exclude_partial", []string{})
	v.SetDefault("filters.regex", "")
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("format", string(export.CSV))
}

// resolveSettings merges defaults, the config file, LINKAUDIT_* variables
// and flags.
func resolveSettings(v *viper.Viper) (config.Settings, error) {
	setDefaults(v, config.Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return config.Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var s config.Settings
	if err := v.Unmarshal(&s); err != nil {
		return config.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, s.Validate()
}

func newApp(v *viper.Viper) (*app, error) {
	settings, err := resolveSettings(v)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(settings.Log.Level, settings.Log.Format)
	if err != nil {
		return nil, err
	}
	return &app{v: v, settings: settings, log: log, metrics: metrics.New()}, nil
}

func appFrom(cmd *cobra.Command) *app {
	if cmd.Context() == nil {
		return nil
	}
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

// load opens the session over the configured input files.
func (a *app) load(ctx context.Context) (*config.Components, error) {
	loader := config.Loader{
		EmbeddingsPath: a.v.GetString("embeddings"),
		LinksPath:      a.v.GetString("links"),
		Logger:         a.log,
		Metrics:        a.metrics,
	}
	if loader.EmbeddingsPath == "" {
		return nil, fmt.Errorf("--embeddings is required: %w", internalerr.ErrInvalidInput)
	}
	if loader.LinksPath == "" {
		a.log.Info("no links table, link analyses will be empty")
	}
	return loader.LoadWith(ctx, a.settings)
}

// sources returns the filtered source pages. ok is false when filters are
// set but matched nothing, in which case there is nothing to analyse.
func (a *app) sources(c *config.Components) (sources []string, ok bool) {
	if c.Filtered() && len(c.Sources) == 0 {
		a.log.Warn("filters matched no pages")
		return nil, false
	}
	return c.Sources, true
}

func (a *app) format() (export.Format, error) {
	return export.ParseFormat(a.v.GetString("format"))
}

// output opens --out, or stdout.
func (a *app) output() (io.Writer, func() error, error) {
	path := a.v.GetString("out")
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// write renders with csvFn or as JSON depending on --format.
func (a *app) write(v any, csvFn func(io.Writer) error) error {
	format, err := a.format()
	if err != nil {
		return err
	}
	w, closeFn, err := a.output()
	if err != nil {
		return err
	}
	if format == export.JSON || csvFn == nil {
		err = export.WriteJSON(w, v)
	} else {
		err = csvFn(w)
	}
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	return err
}
