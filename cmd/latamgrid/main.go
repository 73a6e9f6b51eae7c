package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ChicagoDave/latamgrid/internal/config"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "latamgrid",
		Short:         "Explore pre-computed LATAM energy scenarios",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./latamgrid.yaml)")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.String("data", "", "scenario data directory")
	pf.String("source", "", "document source: dir, http or minio")
	_ = viper.BindPFlag("log.verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("data.dir", pf.Lookup("data"))
	_ = viper.BindPFlag("data.source", pf.Lookup("source"))

	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(optionsCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(heatmapCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(serveCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	if err := config.Init(cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the manifest, topology and every scenario's documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context())
		},
	}
}

func optionsCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "options",
		Short: "List the selectable values of every field for a scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOptions(cmd.Context(), key)
		},
	}
	cmd.Flags().StringVarP(&key, "scenario", "s", "", "starting scenario key (default is the manifest's first)")
	return cmd
}

func resolveCmd() *cobra.Command {
	var key, field, value string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Apply one field edit and print the scenario it resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), key, field, value)
		},
	}
	cmd.Flags().StringVarP(&key, "scenario", "s", "", "starting scenario key (default is the manifest's first)")
	cmd.Flags().StringVar(&field, "field", "", "field to change")
	cmd.Flags().StringVar(&value, "value", "", "new value")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func heatmapCmd() *cobra.Command {
	var key, metric string
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Print per-country values, colors and the legend for a metric",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHeatmap(cmd.Context(), key, metric)
		},
	}
	cmd.Flags().StringVarP(&key, "scenario", "s", "", "scenario key (default is the manifest's first)")
	cmd.Flags().StringVarP(&metric, "metric", "m", "Total", "heatmap metric id")
	return cmd
}

func summaryCmd() *cobra.Command {
	var key, name string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the regional summary, or one country's",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSummary(cmd.Context(), key, name)
		},
	}
	cmd.Flags().StringVarP(&key, "scenario", "s", "", "scenario key (default is the manifest's first)")
	cmd.Flags().StringVarP(&name, "country", "c", "", "country name or code")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().IntP("port", "p", 3000, "HTTP server port")
	cmd.Flags().Bool("watch", false, "reload documents when files in the data directory change")
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("data.watch", cmd.Flags().Lookup("watch"))
	return cmd
}
