// Command tsgeojson exports time series records as GeoJSON, either once
// from the command line or on demand over HTTP.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/godeepar/tsgeojson/logging"
)

// Set by the linker
var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

// app carries what every command shares
type app struct {
	log    *logrus.Logger
	closer io.Closer

	logOpts logging.Options
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{logOpts: logging.DefaultOptions()}

	root := &cobra.Command{
		Use:           "tsgeojson",
		Short:         "Export time series locations as GeoJSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.verbose {
				a.logOpts.Level = "trace"
			}
			log, closer, err := logging.New(a.logOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.log, a.closer = log, closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&a.logOpts.Level, "log-level", a.logOpts.Level, "log level (trace, debug, info, warn, error)")
	flags.StringVar(&a.logOpts.File, "log-file", "", "also write logs to this file, rotated")
	flags.BoolVar(&a.logOpts.JSON, "log-json", false, "log as JSON")

	root.AddCommand(newExportCmd(a), newServeCmd(a), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tsgeojson %s\n", version)
			fmt.Fprintf(out, "Git Commit: %s\n", gitCommit)
			fmt.Fprintf(out, "Build Time: %s\n", buildTime)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
