package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cognicore/linkaudit/internal/server"
	"github.com/cognicore/linkaudit/pkg/linkaudit/store"
	"github.com/cognicore/linkaudit/pkg/linkaudit/store/sqlite"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	var (
		dbPath string
		noCORS bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyses over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			comp, err := a.load(ctx)
			if err != nil {
				return err
			}

			var runs store.Store
			if dbPath != "" {
				if runs, err = sqlite.OpenSQLite(ctx, dbPath); err != nil {
					return err
				}
				defer runs.Close()
			}

			srv := server.NewServer(server.Config{
				Addr:        a.settings.Server.Addr,
				Settings:    comp.Settings,
				Sources:     comp.Sources,
				Filtered:    comp.Filtered(),
				Runs:        runs,
				Logger:      a.log,
				Metrics:     a.metrics,
				CORSEnabled: !noCORS,
			}, comp.Session)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				a.log.Info("signal received", zap.String("signal", sig.String()))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "listen address")
	f.StringVar(&dbPath, "db", "", "SQLite run store to expose under /api/runs")
	f.BoolVar(&noCORS, "no-cors", false, "disable CORS headers")
	_ = v.BindPFlag("server.addr", f.Lookup("addr"))
	return cmd
}
