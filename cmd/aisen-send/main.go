// aisen-send sends a single message event to a DSN. It is meant for checking
// that a DSN, network path and project are set up correctly.
//
//	aisen-send --dsn https://public@o1.ingest.example.com/42 --message "hello" --tag env=dev
//
// The DSN may also come from a YAML config file (--config) or from the
// AISEN_DSN and SENTRY_DSN environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/strongdm/aisen/pkg/aisen"
	"github.com/strongdm/aisen/pkg/aisen/transports/httptransport"
	"github.com/strongdm/aisen/pkg/aisen/transports/multi"
	"github.com/strongdm/aisen/pkg/aisen/transports/stderr"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var levels = map[string]aisen.Level{
	"debug":   aisen.LevelDebug,
	"info":    aisen.LevelInfo,
	"warning": aisen.LevelWarning,
	"error":   aisen.LevelError,
	"fatal":   aisen.LevelFatal,
}

func run(args []string) error {
	var (
		dsnFlag    string
		configPath string
		message    string
		levelName  string
		tags       map[string]string
		compress   bool
		echo       bool
		verbose    bool
		timeout    time.Duration
	)

	flagSet := pflag.NewFlagSet("aisen-send", pflag.ContinueOnError)
	flagSet.StringVar(&dsnFlag, "dsn", "", "DSN to send to (overrides config and environment)")
	flagSet.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flagSet.StringVarP(&message, "message", "m", "aisen-send test event", "event message")
	flagSet.StringVarP(&levelName, "level", "l", "info", "event level: debug, info, warning, error or fatal")
	flagSet.StringToStringVarP(&tags, "tag", "t", nil, "event tag as key=value (repeatable)")
	flagSet.BoolVar(&compress, "compress", false, "gzip the request body")
	flagSet.BoolVar(&echo, "echo", false, "also print the event to stderr")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log SDK diagnostics at debug level")
	flagSet.DurationVar(&timeout, "timeout", 30*time.Second, "send timeout")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	level, ok := levels[levelName]
	if !ok {
		return fmt.Errorf("unknown level %q", levelName)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if dsnFlag != "" {
		cfg.DSN = dsnFlag
	}

	dsn, err := cfg.ParsedDSN()
	if err != nil {
		return err
	}
	if dsn == nil {
		return errors.New("no DSN: pass --dsn, set it in the config file, or set AISEN_DSN or SENTRY_DSN")
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := aisen.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	httpOpts := []httptransport.Option{httptransport.WithLogger(logger)}
	if compress {
		httpOpts = append(httpOpts, httptransport.WithCompression())
	}
	var transport aisen.Transport = httptransport.NewDefault(dsn, httpOpts...)
	if echo {
		transport = multi.New(transport, stderr.New(stderr.WithVerbose()))
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	opts = append(opts, aisen.WithTransport(transport), aisen.WithLogger(logger))

	hub, err := aisen.NewHub(opts...)
	if err != nil {
		return err
	}
	defer hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if len(tags) > 0 {
		hub.ConfigureScope(ctx, func(s *aisen.Scope) {
			s.SetTags(tags)
		})
	}

	resp, err := hub.CaptureMessage(ctx, message, level)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return fmt.Errorf("event %s %s: HTTP %d %s", resp.EventID, resp.Status, resp.StatusCode, resp.Message)
	}

	fmt.Printf("sent event %s to %s\n", resp.EventID, dsn.EnvelopeEndpoint())
	return nil
}

func loadConfig(path string) (*aisen.Config, error) {
	if path == "" {
		// Still applies the environment DSN override
		return aisen.ParseConfig(nil)
	}
	return aisen.LoadConfig(path)
}
