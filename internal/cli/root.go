// Package cli implements the pagefetch command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raysh454/pagefetch/internal/app"
)

// Set at build time with -ldflags "-X .../internal/cli.Version=...".
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

const appName = "pagefetch"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFile    string

	app *app.Application
}

// Execute runs the root command against os.Args and returns the process
// exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCmd builds the command tree. Each call returns an independent tree
// so tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Fetch page markup with plain HTTP or a headless browser",
		Long: `pagefetch retrieves the HTML of a web page.

The static mode issues a plain GET with bounded retries on transient 5xx
responses. The dynamic mode drives a headless Chrome, waits until the page
is ready and returns the markup after scripts have run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML); defaults to ./pagefetch.yaml when present")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Rotating log file; pass an empty value to disable file logging")

	cmd.AddCommand(
		newFetchCmd(opts),
		newDiffCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// init loads config, applies flag overrides and builds the application.
func (o *globalOptions) init(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := app.Load(o.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Log.File = o.logFile
	}

	a, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}
	o.app = a
	return nil
}

// withApp runs fn and shuts the application down afterwards, also when fn
// fails (cobra skips post-run hooks on error).
func (o *globalOptions) withApp(fn func(cmd *cobra.Command, args []string, a *app.Application) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if serr := o.app.Shutdown(context.Background()); err == nil {
				err = serr
			}
		}()
		return fn(cmd, args, o.app)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s version %s (build: %s)\n", appName, Version, BuildTime)
}
