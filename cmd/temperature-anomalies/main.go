package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/i474232898/temperature-anomalies/internal/config"
	"github.com/i474232898/temperature-anomalies/internal/report"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:           "temperature-anomalies",
		Short:         "Seasonal temperature anomaly analysis",
		Long:          "Generates daily temperature series, detects seasonal anomalies under a sequential and a parallel engine, and checks a live reading against history.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.Int("years", 10, "years of synthetic data per city")
	flags.Uint64("seed", 0, "random seed (0 = time based)")
	flags.Int("workers", 0, "parallel engine workers (0 = number of CPUs)")
	flags.String("city", "Berlin", "city checked against a live reading (empty disables the check)")
	flags.String("season", "", "season for the live check (default: season of today)")
	flags.String("provider", "openweathermap", "live provider (openweathermap, weatherapi)")
	flags.String("csv", "temperature_data.csv", "snapshot CSV path")
	flags.Int("rows", 5, "records shown from each end of the record table (0 shows all)")
	flags.String("log-level", "info", "log level (panic, fatal, error, warn, info, debug, trace)")
	flags.String("log-format", "tty", "log format (json, logfmt, tty)")

	for key, flag := range map[string]string{
		config.KeyYears:         "years",
		config.KeySeed:          "seed",
		config.KeyWorkers:       "workers",
		config.KeyCompareCity:   "city",
		config.KeyCompareSeason: "season",
		config.KeyLiveProvider:  "provider",
		config.KeyCSVPath:       "csv",
		config.KeyReportRows:    "rows",
		config.KeyLogLevel:      "log-level",
		config.KeyLogFormat:     "log-format",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(
		newRunCmd(v),
		newExportCmd(v),
		newAnalyzeCmd(v),
		newServeCmd(v),
	)
	return rootCmd
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", report.FormatText, "output format (text, json)")
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	if format != report.FormatText && format != report.FormatJSON {
		return "", fmt.Errorf("invalid --output %q (want %s or %s)", format, report.FormatText, report.FormatJSON)
	}
	return format, nil
}

func loadApp(v *viper.Viper) (*application, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	return newApplication(cfg, os.Stderr)
}
