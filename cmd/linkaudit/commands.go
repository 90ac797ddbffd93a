package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/linkaudit/pkg/linkaudit"
	"github.com/cognicore/linkaudit/pkg/linkaudit/export"
	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/opportunity"
	"github.com/cognicore/linkaudit/pkg/linkaudit/similarity"
)

func newSimilarityCommand() *cobra.Command {
	var minScore float64
	cmd := &cobra.Command{
		Use:   "similarity",
		Short: "List the most similar page pairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comp, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			pairs := []similarity.Pair{}
			if sources, ok := a.sources(comp); ok {
				if pairs, err = comp.Session.Similarities(a.settings.TopK, minScore, sources); err != nil {
					return err
				}
			}
			a.log.Info("similarities", zap.Int("pairs", len(pairs)))
			return a.write(pairs, func(w io.Writer) error { return export.Similarities(w, pairs) })
		},
	}
	cmd.Flags().Float64Var(&minScore, "min-score", -1, "drop pairs scoring below this")
	return cmd
}

func newOpportunitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "opportunities",
		Short: "List similar pages that are not linked yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comp, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			ops := []opportunity.Opportunity{}
			if sources, ok := a.sources(comp); ok {
				if ops, err = comp.Session.Opportunities(a.settings.TopK, a.settings.Threshold, sources); err != nil {
					return err
				}
			}
			a.log.Info("opportunities",
				zap.Int("count", len(ops)),
				zap.Int("top_k", a.settings.TopK),
				zap.Float64("threshold", a.settings.Threshold))
			return a.write(ops, func(w io.Writer) error { return export.Opportunities(w, ops) })
		},
	}
}

func newIncomingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "incoming",
		Short: "Compare existing and recommended incoming links per page",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comp, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := comp.Session.Incoming(a.settings.TopK, a.settings.Threshold)
			if err != nil {
				return err
			}
			return a.write(rows, func(w io.Writer) error { return export.Incoming(w, rows) })
		},
	}
}

func newDetailCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detail <url>",
		Short: "Show incoming links, anchors and suggestions for one page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comp, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			d, err := comp.Session.Detail(args[0], a.settings.TopK)
			if err != nil {
				return err
			}
			return a.write(d, nil)
		},
	}
}

func newThemesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "Group pages by URL theme and measure cross-theme similarity",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comp, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			var report linkaudit.ThemeReport
			if sources, ok := a.sources(comp); ok {
				t := a.settings.Theme
				if report, err = comp.Session.Themes(a.settings.TopK, t.Level, t.MinScore, sources); err != nil {
					return err
				}
			}
			a.log.Info("themes", zap.Int("pages", len(report.Rows)), zap.Int("clusters", len(report.Clusters)))
			return a.write(report, func(w io.Writer) error { return export.Themes(w, report.Rows) })
		},
	}
}

func newBrokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "broken",
		Short: "List links answering with an error status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comp, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			count, links := comp.Session.Broken()
			a.log.Info("broken links", zap.Int("count", count), zap.Int("targets", len(links)))
			return a.write(links, func(w io.Writer) error { return export.Broken(w, links) })
		},
	}
}

func newAnchorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "anchors",
		Short: "Profile anchor texts and find cannibalised anchors",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comp, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			report := comp.Session.Anchors()
			if len(report.Cannibals) > 0 {
				a.log.Warn("anchors point to several pages", zap.Strings("anchors", report.Cannibals))
			}
			return a.write(report, func(w io.Writer) error { return export.Anchors(w, report.Profiles) })
		},
	}
}

func newStructureCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "structure",
		Short: "Summarise the link graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comp, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			return a.write(comp.Session.Structure(), nil)
		},
	}
}

// errNoSources is returned by commands that cannot run on an empty selection.
var errNoSources = fmt.Errorf("filters matched no pages: %w", internalerr.ErrInvalidInput)
