package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
	"github.com/cognicore/linkaudit/pkg/linkaudit/store"
	"github.com/cognicore/linkaudit/pkg/linkaudit/store/sqlite"
)

func newRunsCommand() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored report runs",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "linkaudit.db", "SQLite run store")

	open := func(cmd *cobra.Command) (store.Store, error) {
		if dbPath == "" {
			return nil, fmt.Errorf("--db is required: %w", internalerr.ErrInvalidInput)
		}
		return sqlite.OpenSQLite(cmd.Context(), dbPath)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			runs, err := st.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			return appFrom(cmd).write(runs, nil)
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the report of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			rep, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return appFrom(cmd).write(rep, nil)
		},
	}

	var keep int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			res, err := store.Prune(cmd.Context(), st, keep)
			if err != nil {
				return err
			}
			appFrom(cmd).log.Info("runs pruned",
				zap.Int("kept", res.Kept),
				zap.Int("deleted", res.Deleted),
				zap.Int("errors", res.Errors))
			return nil
		},
	}
	prune.Flags().IntVar(&keep, "keep", 10, "runs to keep")

	cmd.AddCommand(list, show, prune)
	return cmd
}
