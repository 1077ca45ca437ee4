package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hla-gateway/internal/config"
	"hla-gateway/internal/version"
	"hla-gateway/pkg/logger"
)

func init() {
	logger.Init()
	// stdout занят данными команд (schema, validate), логи уходят в stderr.
	logger.SetOutput(os.Stderr)
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "hlagw",
		Short:        "Gateway between an HLA federation and an actor/message simulation",
		SilenceUsage: true,
	}

	var level string
	rootCmd.PersistentFlags().StringVar(&level, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if level != "" {
			logger.SetLevel(level)
		}
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(schemaCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// sourceFlags - откуда брать документ маппингов: файл или каталог.
type sourceFlags struct {
	file    string
	name    string
	version int
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "mappings", "m", "", "mapping document (YAML)")
	cmd.Flags().StringVar(&f.name, "catalog-name", "", "load the mapping document from the catalog instead of a file")
	cmd.Flags().IntVar(&f.version, "catalog-version", 0, "catalog document version (0 = latest)")
}

func serveCmd() *cobra.Command {
	s := config.Load()
	var (
		src        sourceFlags
		ddmEnabled bool
		journalDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Join the federation and serve the inspection API and message stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), s, src, ddmEnabled, journalDir)
		},
	}

	cmd.Flags().StringVarP(&s.Port, "port", "p", s.Port, "HTTP server port")
	cmd.Flags().StringVar(&s.DBPath, "db", s.DBPath, "SQLite mapping catalog")
	cmd.Flags().StringVar(&s.Federation, "federation", s.Federation, "federation to join (empty runs detached)")
	cmd.Flags().StringVar(&s.Federate, "federate", s.Federate, "federate name")
	cmd.Flags().Uint16Var(&s.SiteID, "site-id", s.SiteID, "site id of local entity identifiers")
	cmd.Flags().Uint16Var(&s.AppID, "app-id", s.AppID, "application id of local entity identifiers")
	cmd.Flags().DurationVar(&s.Tick, "tick", s.Tick, "session tick period")
	cmd.Flags().BoolVar(&ddmEnabled, "ddm", false, "enable DDM regardless of the mapping document")
	cmd.Flags().StringVar(&journalDir, "journal", "", "record inbound federation traffic into this directory")
	src.register(cmd)
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [mapping-file]",
		Short: "Check a mapping document and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0])
		},
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the mapping document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.MarshalSchema()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func importCmd() *cobra.Command {
	s := config.Load()
	var name, comment string

	cmd := &cobra.Command{
		Use:   "import [mapping-file]",
		Short: "Validate a mapping document and store it as a new catalog version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), s.DBPath, args[0], name, comment)
		},
	}

	cmd.Flags().StringVar(&s.DBPath, "db", s.DBPath, "SQLite mapping catalog")
	cmd.Flags().StringVar(&name, "name", "", "catalog name (default: file name without extension)")
	cmd.Flags().StringVar(&comment, "comment", "", "revision comment")
	return cmd
}

func replayCmd() *cobra.Command {
	s := config.Load()
	var (
		src    sourceFlags
		speed  float64
		settle int
	)

	cmd := &cobra.Command{
		Use:   "replay [journal-file]",
		Short: "Play a federation journal through the gateway and print the resulting actors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), cmd.OutOrStdout(), s, src, args[0], speed, settle)
		},
	}

	cmd.Flags().StringVar(&s.DBPath, "db", s.DBPath, "SQLite mapping catalog")
	cmd.Flags().Float64Var(&speed, "speed", 0, "playback speed factor (0 = as fast as possible)")
	cmd.Flags().IntVar(&settle, "settle-ticks", 3, "ticks to run after the last record")
	src.register(cmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// tickOrDefault защищает от нулевого периода из флагов.
func tickOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 50 * time.Millisecond
	}
	return d
}
