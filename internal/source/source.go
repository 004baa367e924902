// Package source yields access-log lines from files, standard input and
// CloudWatch Logs groups.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/Nao-Mk2/access-log-top/internal/client"
)

// StdinName is the argument that selects standard input.
const StdinName = "-"

// checkEvery is how many lines are read between context checks.
const checkEvery = 1024

// Source is one ordered stream of lines.
type Source interface {
	Name() string
	// Lines calls fn for every line without its line terminator. Reading
	// stops at the first error returned by fn.
	Lines(ctx context.Context, fn func(line string) error) error
}

// File reads a file from disk. Gzip-compressed content is detected and
// decompressed.
type File struct {
	Path string
}

func (f File) Name() string { return f.Path }

func (f File) Lines(ctx context.Context, fn func(string) error) error {
	fh, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer fh.Close()
	if err := readLines(ctx, fh, fn); err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	return nil
}

// Reader reads an already open stream, such as standard input.
type Reader struct {
	name string
	r    io.Reader
}

// NewReader returns a Source named name reading from r.
func NewReader(name string, r io.Reader) *Reader {
	return &Reader{name: name, r: r}
}

func (s *Reader) Name() string { return s.name }

func (s *Reader) Lines(ctx context.Context, fn func(string) error) error {
	if err := readLines(ctx, s.r, fn); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return nil
}

// CloudWatch reads the messages of one log group in a time window.
type CloudWatch struct {
	Client        *client.CloudWatchClient
	Group         string
	FilterPattern string
	Start, End    time.Time
}

func (s *CloudWatch) Name() string { return "cloudwatch:" + s.Group }

func (s *CloudWatch) Lines(ctx context.Context, fn func(string) error) error {
	return s.Client.EachMessage(ctx, s.Group, s.FilterPattern, s.Start.UnixMilli(), s.End.UnixMilli(), func(msg string) error {
		for _, line := range strings.Split(strings.TrimRight(msg, "\r\n"), "\n") {
			if err := fn(strings.TrimSuffix(line, "\r")); err != nil {
				return err
			}
		}
		return nil
	})
}

// FromArgs maps file arguments to sources. "-" selects stdin. No arguments
// means stdin alone.
func FromArgs(args []string, stdin io.Reader) []Source {
	if len(args) == 0 {
		return []Source{NewReader(StdinName, stdin)}
	}
	sources := make([]Source, 0, len(args))
	for _, a := range args {
		if a == StdinName {
			sources = append(sources, NewReader(StdinName, stdin))
			continue
		}
		sources = append(sources, File{Path: a})
	}
	return sources
}

// Each runs fn over the lines of every source in order.
func Each(ctx context.Context, sources []Source, fn func(line string) error) error {
	for _, s := range sources {
		if err := s.Lines(ctx, fn); err != nil {
			return err
		}
	}
	return nil
}

var gzipMagic = []byte{0x1f, 0x8b}

func readLines(ctx context.Context, r io.Reader, fn func(string) error) error {
	br := bufio.NewReaderSize(r, 64*1024)
	if magic, err := br.Peek(len(gzipMagic)); err == nil && string(magic) == string(gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return err
		}
		defer zr.Close()
		br = bufio.NewReaderSize(zr, 64*1024)
	}

	for n := 1; ; n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
