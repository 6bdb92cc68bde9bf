// Command sockget requests one or more URLs over a single kept-alive connection
// and prints each response.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"sockethttp/application/http"
	"sockethttp/application/http/actor/client"
	"sockethttp/config"
	"sockethttp/transport"
	"sockethttp/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const envPrefix = "SOCKGET"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil); err != nil {
		fmt.Fprintln(os.Stderr, "sockget:", err)
		os.Exit(1)
	}
}

type headerFlags []http.Field

func (h *headerFlags) String() string {
	parts := make([]string, 0, len(*h))
	for _, f := range *h {
		parts = append(parts, string(f.Text()))
	}
	return strings.Join(parts, ", ")
}

func (h *headerFlags) Set(v string) error {
	field, err := http.ParseField([]byte(v))
	if err != nil {
		return errors.Wrapf(err, "header %q", v)
	}
	*h = append(*h, field)
	return nil
}

// run is main without the process around it. A nil dialer dials real sockets.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, dialer transport.ConnDialer) error {
	fs := flag.NewFlagSet("sockget", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath = fs.String("config", "", "TOML config file")
		method     = fs.String("X", "GET", "request method")
		data       = fs.String("d", "", "request body, sent with a Content-Length")
		dumpStats  = fs.Bool("metrics", false, "print client metrics to stderr when done")
		headers    headerFlags
	)
	fs.Var(&headers, "H", "request header 'Name: value', repeatable")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: sockget [-config file] [-metrics] [-X method] [-d body] [-H 'Name: value']... url...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no url given")
	}

	cfg, err := config.Load(*configPath, envPrefix)
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if dialer == nil {
		dialer = tcp.NewDialer(cfg.TLSConfig(), logger)
	}

	var body []byte
	if *data != "" {
		body = []byte(*data)
		headers = append(headers, http.Field{Name: "Content-Length", Value: strconv.Itoa(len(body))})
	}

	reg := prometheus.NewRegistry()
	opts := cfg.ClientOptions()
	if opts.Metrics, err = client.NewMetrics(reg); err != nil {
		return err
	}

	c := client.New(dialer, logger, clock.New(), opts)
	defer c.Close()

	if *dumpStats {
		defer func() {
			if err := writeMetrics(stderr, reg); err != nil {
				logger.Error("writing metrics", slog.String("error", err.Error()))
			}
		}()
	}

	for _, url := range fs.Args() {
		res, err := c.Request(ctx, *method, url, body, headers...)
		if err != nil {
			return errors.Wrapf(err, "requesting %s", url)
		}
		logger.Info("response", slog.String("url", url), slog.Int("status", res.Status), slog.Int("bytes", len(res.Body)))
		if err := printResponse(stdout, res); err != nil {
			return errors.Wrap(err, "printing response")
		}
	}

	return nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "encoding metrics")
		}
	}
	return nil
}

// printResponse writes the status line, headers sorted by name, and the body.
func printResponse(w io.Writer, res *client.Response) error {
	// bufio.Writer keeps the first write error.
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s %d %s\n", res.Version, res.Status, res.Reason)

	names := make([]string, 0, len(res.Headers))
	for name := range res.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(bw, "%s: %s\n", name, res.Headers[name])
	}

	fmt.Fprintln(bw)
	bw.Write(res.Body)
	if len(res.Body) > 0 && res.Body[len(res.Body)-1] != '\n' {
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
