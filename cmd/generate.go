package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"github.com/Nao-Mk2/access-log-top/internal/loggen"
)

type generateOptions struct {
	lines  int
	seed   int64
	output string
	gzip   bool
}

func newGenerateCommand(s Streams) *cobra.Command {
	o := &generateOptions{}
	c := &cobra.Command{
		Use:   "generate",
		Short: "Write synthetic access-log lines for testing and benchmarks",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if o.lines < 0 {
				return usageError{fmt.Errorf("--lines must not be negative, got %d", o.lines)}
			}
			return o.run(s.Out)
		},
	}
	c.Flags().IntVarP(&o.lines, "lines", "n", 1000, "number of lines")
	c.Flags().Int64Var(&o.seed, "seed", 1, "random seed; equal seeds give equal output")
	c.Flags().StringVarP(&o.output, "output", "o", "", "output file (default: stdout)")
	c.Flags().BoolVar(&o.gzip, "gzip", false, "gzip-compress the output")
	return c
}

func (o *generateOptions) run(stdout io.Writer) (err error) {
	w := stdout
	if o.output != "" {
		f, err := os.Create(o.output)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	if o.gzip {
		zw := gzip.NewWriter(w)
		defer func() {
			if cerr := zw.Close(); err == nil {
				err = cerr
			}
		}()
		w = zw
	}
	if err := loggen.New(o.seed).Write(w, o.lines); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	return nil
}
