// Package cmd provides the htmlssg command-line interface.
//
// Configuration is layered, highest priority first:
//
//  1. Command-line flags (--source, --output, --port, ...)
//  2. HTMLSSG_<SECTION>_<KEY> environment variables (HTMLSSG_SERVER_PORT, ...)
//  3. The config file: --config, else $HTMLSSG_CONFIG_FILE, else .htmlssg.yml
//  4. Built-in defaults
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/htmlssg/htmlssg/internal/config"
	"github.com/htmlssg/htmlssg/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "htmlssg",
	Short: "A static site generator for plain HTML, Markdown and JSON",
	Long: `htmlssg compiles a directory of HTML and Markdown pages, layout files,
template fragments and JSON data into a static site.

Project layout:
  site.html                 root layout
  site.json                 global data, bound under "site"
  pages/<name>/<name>.md    pages (Markdown or HTML)
  pages/**/layout.html      directory layouts
  templates/**/*.html       fragments for <template ref="..." />
  static/**                 copied verbatim

Quick Start:
  htmlssg init my-site      Create a new project
  htmlssg serve             Build, serve and rebuild on change
  htmlssg build             Build into ./dist`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization cycle
	// (initConfig -> bindFlags -> flagBindings -> rootCmd).
	rootCmd.PersistentPreRunE = initConfig

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .htmlssg.yml, can also use HTMLSSG_CONFIG_FILE)")
	flags.StringP("source", "s", ".", "site source directory")
	flags.StringP("output", "o", "./dist", "output directory")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
}

// initConfig binds flags and loads the config file before any command runs.
func initConfig(cmd *cobra.Command, _ []string) error {
	v := viper.GetViper()
	if err := bindFlags(v); err != nil {
		return err
	}

	used, err := config.Init(v, cfgFile)
	if err != nil {
		return err
	}
	if used != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", used)
	}
	return nil
}

// flagBindings maps config keys to the command flags that override them.
func flagBindings() map[string]*pflag.Flag {
	root := rootCmd.PersistentFlags()
	return map[string]*pflag.Flag{
		"source.dir":              root.Lookup("source"),
		"build.output":            root.Lookup("output"),
		"log.level":               root.Lookup("log-level"),
		"log.format":              root.Lookup("log-format"),
		"build.workers":           buildCmd.Flags().Lookup("workers"),
		"build.clean":             buildCmd.Flags().Lookup("clean"),
		"server.host":             serveCmd.Flags().Lookup("host"),
		"server.port":             serveCmd.Flags().Lookup("port"),
		"server.open":             serveCmd.Flags().Lookup("open"),
		"development.watch":       serveCmd.Flags().Lookup("watch"),
		"development.live_reload": serveCmd.Flags().Lookup("live-reload"),
		"development.debounce":    serveCmd.Flags().Lookup("debounce"),
	}
}

func bindFlags(v *viper.Viper) error {
	for key, flag := range flagBindings() {
		if flag == nil {
			return fmt.Errorf("no flag bound to %s", key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

// loadConfig reads the effective configuration and builds the logger every
// command logs through.
func loadConfig(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg, err := cfg.Log.LoggerConfig(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewLogger(logCfg), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
