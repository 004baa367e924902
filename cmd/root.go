// Package cmd implements the access-log-top command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nao-Mk2/access-log-top/internal/config"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Streams are the standard streams a command runs against.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// NewRootCommand builds the access-log-top command tree.
func NewRootCommand(s Streams) *cobra.Command {
	opts := &Options{}
	v := config.NewViper()

	root := &cobra.Command{
		Use:   "access-log-top [flags] [file|-]...",
		Short: "Rank the most frequent values of web access logs",
		Long: `access-log-top reads web-server access logs from files, standard input
or CloudWatch Logs groups and prints the most frequent client addresses,
status codes, requests, referrers, user agents, user pages and sitemap
crawlers with their share of the total.

Files are read in argument order, "-" reads standard input and gzip files
are decompressed. Without files or log groups standard input is read.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, rules, err := opts.LoadConfig(c.Flags(), v)
			if err != nil {
				return err
			}
			return analyze(c.Context(), s, cfg, rules, args)
		},
	}
	root.SetIn(s.In)
	root.SetOut(s.Out)
	root.SetErr(s.Err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	opts.AddFlags(root.Flags())

	root.AddCommand(newGenerateCommand(s))
	return root
}

// Execute runs the command line with args and returns the exit code.
// SIGINT and SIGTERM cancel the run; no report is printed then.
func Execute(s Streams, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(s)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(s.Err, "error: %v\n", err)
	if IsUsageError(err) {
		fmt.Fprintf(s.Err, "Run '%s --help' for usage.\n", root.Name())
		return ExitUsage
	}
	return ExitFailure
}

// Main runs the command line against the process streams.
func Main() int {
	return Execute(Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}, os.Args[1:])
}
