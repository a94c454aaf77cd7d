package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/merchkit/countdown/internal/countdown"
	"golang.org/x/term"
)

func main() {
	var (
		server  = flag.String("server", "http://localhost:8080", "countdown service base URL")
		shop    = flag.String("shop", "", "store domain (required)")
		product = flag.String("product", "", "product id (required)")
		title   = flag.String("title", "", "override the displayed title")
	)
	flag.Parse()

	if *shop == "" || *product == "" {
		fmt.Fprintln(os.Stderr, "usage: widget -shop <domain> -product <id> [-server URL] [-title TEXT]")
		os.Exit(2)
	}

	overrides := map[string]any{}
	if *title != "" {
		overrides["title"] = *title
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	display := countdown.NewDisplay(
		countdown.NewClient(*server),
		newTermRenderer(os.Stdout),
		overrides,
	)

	if err := display.Run(ctx, *shop, *product); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "widget:", err)
		os.Exit(1)
	}
	fmt.Println()
}

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31;1m"
)

// termRenderer draws countdown frames in place on a terminal, switching to
// plain line output when stdout is not a TTY.
type termRenderer struct {
	out   *os.File
	tty   bool
	color bool
}

func newTermRenderer(out *os.File) *termRenderer {
	tty := term.IsTerminal(int(out.Fd()))
	return &termRenderer{
		out:   out,
		tty:   tty,
		color: tty && os.Getenv("NO_COLOR") == "",
	}
}

func (r *termRenderer) Render(s countdown.Snapshot) {
	clock := s.Clock
	if s.Urgent && r.color {
		clock = ansiRed + clock + ansiReset
	}

	line := fmt.Sprintf("%s  %s", s.Styles.Title, clock)
	if s.Done {
		line += "  (ended)"
	}

	if r.tty {
		fmt.Fprintf(r.out, "\r\x1b[K%s", line)
		return
	}
	fmt.Fprintln(r.out, line)
}

func (r *termRenderer) Empty() {
	fmt.Fprintln(r.out, "no active timer")
}
