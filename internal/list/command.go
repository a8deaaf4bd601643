package list

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/nguyengg/nestedjar"
	"github.com/nguyengg/nestedjar/internal/source"
)

type Command struct {
	Nested []string `short:"n" long:"nested" description:"descend into this stored entry and list the nested archive instead; repeat to go deeper"`
	Long   bool     `short:"l" long:"long" description:"also print method, sizes, and modification time"`
	Args   struct {
		Archive string `positional-arg-name:"archive" description:"local path or s3://bucket/key URI of the archive" required:"yes"`
	} `positional-args:"yes"`
}

func (c *Command) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	a, err := source.Open(ctx, c.Args.Archive, c.Nested)
	if err != nil {
		return err
	}
	defer a.Close()

	if !c.Long {
		for e := range a.Entries().All() {
			fmt.Println(e.Name())
		}

		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for e := range a.Entries().All() {
		method := "stored"
		if e.Method() == nestedjar.MethodDeflated {
			method = "deflated"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			method,
			humanize.IBytes(uint64(e.CompressedSize())),
			humanize.IBytes(uint64(e.Size())),
			e.Modified().Format("2006-01-02 15:04:05"),
			e.Name())
	}

	return w.Flush()
}
