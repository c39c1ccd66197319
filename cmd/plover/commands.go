package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/plover"
	"github.com/hupe1980/plover/internal/server"
	"github.com/hupe1980/plover/internal/watch"
	"github.com/hupe1980/plover/query"
)

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "plover",
		Short:         "In-memory knowledge graph index and query service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "plover.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log.level")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "override log.format")

	root.AddCommand(
		newServeCmd(&flags),
		newBuildCmd(&flags),
		newQueryCmd(&flags),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Build the index and serve it over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, flags)
			if err != nil {
				return err
			}

			metrics := server.NewMetrics(prometheus.DefaultRegisterer)
			authn, err := a.authenticator(ctx)
			if err != nil {
				return err
			}

			db, err := a.open(ctx, plover.WithMetricsCollector(metrics))
			if err != nil {
				return err
			}
			defer db.Close()

			srv := server.New(db, server.Options{
				Auth:         authn,
				Metrics:      metrics,
				Logger:       a.logger,
				MaxBodyBytes: a.cfg.Server.MaxBodyBytes,
				Version:      version,
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Serve(gctx, a.cfg.Server) })
			if a.cfg.Graph.Watch {
				w, err := watch.New(db, a.localPaths(), watch.Options{
					Debounce: a.cfg.Graph.WatchDebounce,
					Logger:   a.logger.WithComponent("watch"),
				})
				if err != nil {
					return err
				}
				g.Go(func() error { return w.Run(gctx) })
			}
			return g.Wait()
		},
	}
}

func newBuildCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the index once and print its statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, flags)
			if err != nil {
				return err
			}
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.Stats()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func newQueryCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "query <file|->",
		Short: "Answer a query graph read from a file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			g, err := query.Decode(data)
			if err != nil {
				return err
			}

			a, err := loadApp(ctx, flags)
			if err != nil {
				return err
			}
			db, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			resp, err := db.Answer(ctx, g)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

func printJSON(w io.Writer, v any) error {
	data, err := gojson.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
