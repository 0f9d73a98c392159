// Package main provides the jsonldschema binary entry point.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reoring/jsonldschema/config"
	"github.com/reoring/jsonldschema/jsonld"
)

const (
	Version = "0.1.0"
	appName = "jsonldschema"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs once flags and config are resolved.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	client *http.Client
	proc   *jsonld.Processor
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		draft      string
	)
	a := &app{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Compile JSON-LD annotated JSON Schemas to frames and SHACL shapes",
		Long: `jsonldschema reads a JSON Schema carrying JSON-LD hints (@context, @type)
and compiles it into:
- a JSON-LD frame selecting the nodes the schema describes
- SHACL shapes expressing the same constraints over RDF

It can also frame JSON-LD documents with the schema and validate every
framed node against it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if configPath != "" {
				loaded, err := config.LoadFromFile(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			cfg.Merge(&config.Config{
				Log:    config.LogConfig{Level: flagValue(cmd, "log-level", logLevel)},
				Schema: config.SchemaConfig{Draft: flagValue(cmd, "draft", draft)},
			})
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			a.init(cfg)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&draft, "draft", "draft-07", "JSON Schema draft for schemas without $schema")

	cmd.AddCommand(frameCmd(a), shapesCmd(a), validateCmd(a), rdfCmd(a))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

// flagValue returns v only when the flag was set explicitly, so config file
// values are not overridden by flag defaults.
func flagValue(cmd *cobra.Command, name, v string) string {
	if cmd.Flags().Changed(name) {
		return v
	}
	return ""
}

func (a *app) init(cfg *config.Config) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.log)

	a.cfg = cfg
	a.client = &http.Client{Timeout: cfg.Schema.HTTPTimeout}
	a.proc = jsonld.NewProcessor(jsonld.Options{Base: cfg.JSONLD.Base, HTTPClient: a.client})
}
