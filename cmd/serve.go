package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/htmlssg/htmlssg/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s", "dev"},
	Short:   "Build the site and serve it with live reload",
	Long: `Build the site, serve the output directory over HTTP and rebuild when
sources change. Open pages reload automatically after each rebuild.

The last build's pages, skipped files and diagnostics are shown at
/__htmlssg/status.

Examples:
  htmlssg serve                       # http://localhost:3000
  htmlssg serve -p 8080 --host 0.0.0.0
  htmlssg serve --open                # Also open a browser tab
  htmlssg serve --watch=false         # Serve without rebuilding`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 3000, "port to serve on")
	serveCmd.Flags().String("host", "localhost", "host to bind to")
	serveCmd.Flags().Bool("open", false, "open the site in the default browser")
	serveCmd.Flags().Bool("watch", true, "rebuild when source files change")
	serveCmd.Flags().Bool("live-reload", true, "reload open pages after each rebuild")
	serveCmd.Flags().Duration("debounce", 300*time.Millisecond, "wait this long for more changes before rebuilding")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := afero.NewOsFs()
	srv := server.New(fs, newGenerator(fs, cfg, logger), server.Options{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		Watch:      cfg.Development.Watch,
		LiveReload: cfg.Development.LiveReload,
		Debounce:   cfg.Development.Debounce,
		Open:       cfg.Server.Open,
	}, logger)

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://%s (Ctrl+C to stop)\n", cfg.Build.Output, cfg.Server.Address())

	return srv.Start(ctx)
}
