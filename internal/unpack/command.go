package unpack

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/nguyengg/nestedjar"
	"github.com/nguyengg/nestedjar/internal/source"
)

type Command struct {
	Dir            string   `short:"d" long:"dir" description:"extract into this directory" default:"."`
	MaxConcurrency int      `short:"P" long:"max-concurrency" description:"use up to max-concurrency number of goroutines at a time to extract entries" default:"4"`
	Nested         []string `short:"n" long:"nested" description:"descend into this stored entry and unpack the nested archive instead; repeat to go deeper"`
	Args           struct {
		Archive string `positional-arg-name:"archive" description:"local path or s3://bucket/key URI of the archive" required:"yes"`
	} `positional-args:"yes"`
}

func (c *Command) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max-concurrency must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	a, err := source.Open(ctx, c.Args.Archive, c.Nested)
	if err != nil {
		return err
	}
	defer a.Close()

	var total int64
	for e := range a.Entries().All() {
		total += e.Size()
	}

	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetDescription("unpacking"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowTotalBytes(true),
		progressbar.OptionThrottle(1*time.Second),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true))
	defer func() {
		_ = bar.Close()
	}()

	// entry reads go through positioned reads into shared storage, so extracting
	// several entries at once is safe.
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.MaxConcurrency)

	for e := range a.Entries().All() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		g.Go(func() error {
			return c.extract(e, bar)
		})
	}

	return g.Wait()
}

func (c *Command) extract(e *nestedjar.Entry, bar *progressbar.ProgressBar) error {
	path, err := securePath(c.Dir, e.Name())
	if err != nil {
		return err
	}

	if e.IsDir() {
		return os.MkdirAll(path, 0755)
	}

	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf(`create parent directories to file (path=%s) error: %w`, path, err)
	}

	src, err := e.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf(`create file (path=%s) error: %w`, path, err)
	}

	_, err = io.Copy(io.MultiWriter(dst, bar), src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf(`extract entry "%s" to file (path=%s) error: %w`, e.Name(), path, err)
	}

	return nil
}

// securePath joins dir and the entry name while refusing names that would
// escape dir via .. or an absolute path.
func securePath(dir, name string) (string, error) {
	name = strings.TrimSuffix(name, "/")
	if filepath.IsAbs(name) || !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", fmt.Errorf(`entry name "%s" escapes the output directory`, name)
	}

	return filepath.Join(dir, filepath.FromSlash(name)), nil
}
