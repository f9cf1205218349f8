// tbimport - CSV telemetry importer for ThingsBoard
//
// This is the main entry point for the tbimport command-line tool.
// It reads tabular time-series data from a CSV file and uploads it to a
// ThingsBoard HTTP ingestion endpoint in fixed-size batches:
//
//	tbimport csv --token <access-token> data.csv
//	tbimport multi devices.csv
//
// The csv command feeds one device, with arbitrary columns as telemetry
// keys. The multi command feeds many devices from one file, each row
// naming its own access token, key, and value.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/tesenso/tb-import/internal/csvfile"
	"github.com/tesenso/tb-import/internal/infrastructure/config"
	"github.com/tesenso/tb-import/internal/infrastructure/logging"
	"github.com/tesenso/tb-import/internal/telemetry"
	"github.com/tesenso/tb-import/internal/uploader"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path, loaded only if it exists.
const defaultConfigPath = "tbimport.yaml"

// Historical per-command batch size defaults, applied when neither the
// --batch flag nor the config file sets an explicit size.
const (
	defaultSingleBatch = 10
	defaultMultiBatch  = 100
)

func main() {
	// Cancel on interrupt signals so a Ctrl+C lands between requests
	// rather than mid-write.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches to the requested subcommand, separated from main for
// testability. Returning an error lets main handle exit codes
// consistently: every failure path exits with status 1.
func run(ctx context.Context, args []string) error {
	// A .env file is optional; ACCESS_TOKEN may live there.
	_ = godotenv.Load()

	if len(args) == 0 {
		printUsage(os.Stderr)
		return errors.New("missing command")
	}

	switch args[0] {
	case "csv":
		return runSingle(ctx, args[1:])
	case "multi":
		return runMulti(ctx, args[1:])
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// runSingle implements the csv command: all rows belong to one device.
func runSingle(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("csv", flag.ContinueOnError)
	sf := registerShared(fs)
	token := fs.String("token", "", "device access token (env ACCESS_TOKEN)")
	var keys stringList
	fs.Var(&keys, "keys", "telemetry key to import; repeat for more (default: all)")
	unixtime := fs.String("unixtime", "Unixtimestamp", "column holding the unix timestamp")
	ms := fs.Bool("ms", false, "interpret the timestamp as milliseconds")
	fs.Usage = usageFor(fs, "tbimport csv [flags] <file.csv>")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("csv: exactly one csv file argument required")
	}
	path := fs.Arg(0)

	cfg, err := loadConfig(sf, setFlags(fs))
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if *token == "" {
		*token = os.Getenv("ACCESS_TOKEN")
	}
	if *token == "" {
		return errors.New("csv: access token required (--token or ACCESS_TOKEN)")
	}

	rows, header, err := csvfile.Read(path, cfg.CSV.SeparatorRune())
	if err != nil {
		return err
	}
	log.Debug("csv file read", "path", path, "rows", len(rows), "columns", header)

	opts := telemetry.SingleOptions{
		Keys:         keys,
		TimestampKey: *unixtime,
		Milliseconds: *ms,
	}
	kept, dropped := telemetry.DataKeys(header, opts)
	if len(dropped) > 0 {
		log.Debug("dropping keys", "keys", dropped)
	}
	if !*ms {
		log.Debug("adjusting timestamps to milliseconds", "column", *unixtime)
	}

	points, err := telemetry.TransformSingle(rows, header, opts)
	if err != nil {
		return err
	}

	up := uploader.New(uploader.Options{
		BaseURL: cfg.Upload.BaseURL,
		Delay:   cfg.Upload.Delay(),
		Strict:  cfg.Upload.Strict,
		Logger:  log,
	})

	log.Info("uploading telemetry",
		"file", path,
		"url", up.TelemetryURL(*token),
		"keys", kept,
		"points", len(points),
	)

	return up.UploadStream(ctx, *token, telemetry.Split(points, batchSize(cfg, defaultSingleBatch)))
}

// runMulti implements the multi command: each row names its own device.
//
// The four required columns are fixed (value, key, timestamp,
// access_token). A missing file or missing columns are reported cleanly
// with exit status 1 before anything is uploaded.
func runMulti(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("multi", flag.ContinueOnError)
	sf := registerShared(fs)
	fs.Usage = usageFor(fs, "tbimport multi [flags] <file.csv>")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("multi: exactly one csv file argument required")
	}
	path := fs.Arg(0)

	cfg, err := loadConfig(sf, setFlags(fs))
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	rows, header, err := csvfile.Read(path, cfg.CSV.SeparatorRune())
	if err != nil {
		return err
	}
	log.Debug("csv file read", "path", path, "rows", len(rows), "columns", header)

	groups, err := telemetry.TransformMulti(rows, header)
	if err != nil {
		return err
	}

	up := uploader.New(uploader.Options{
		BaseURL: cfg.Upload.BaseURL,
		Delay:   cfg.Upload.Delay(),
		Strict:  cfg.Upload.Strict,
		Logger:  log,
	})
	n := batchSize(cfg, defaultMultiBatch)

	for _, group := range groups {
		log.Info("uploading device telemetry",
			"file", path,
			"url", up.TelemetryURL(group.Token),
			"points", len(group.Points),
		)
		if err := up.UploadStream(ctx, group.Token, telemetry.Split(group.Points, n)); err != nil {
			return err
		}
	}

	return nil
}

// sharedFlags holds the options common to both commands.
type sharedFlags struct {
	configPath string
	baseURL    string
	separator  string
	batch      int
	delayMS    int
	verbose    bool
	strict     bool
}

// registerShared registers the shared flags on a subcommand's FlagSet.
//
// Defaults here are placeholders: a flag only overrides the config when
// it was set on the command line (see loadConfig / setFlags).
func registerShared(fs *flag.FlagSet) *sharedFlags {
	sf := &sharedFlags{}
	fs.StringVar(&sf.configPath, "config", "", "path to a YAML config file (env TBIMPORT_CONFIG)")
	fs.StringVar(&sf.baseURL, "baseurl", "", "thingsboard base URL with port (default https://tesenso.io)")
	fs.StringVar(&sf.separator, "separator", "", "field separator of the csv file (default \";\")")
	fs.IntVar(&sf.batch, "batch", 0, "datapoints written in a single request (default 10 for csv, 100 for multi)")
	fs.IntVar(&sf.delayMS, "delay", 0, "time to wait between requests in milliseconds (default 100)")
	fs.BoolVar(&sf.verbose, "verbose", false, "print verbose output")
	fs.BoolVar(&sf.strict, "strict", false, "abort on the first non-2xx response")
	return sf
}

// setFlags reports which flags were explicitly set on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// loadConfig resolves the run configuration: defaults, then an optional
// YAML file, then environment overrides, then explicitly set flags.
func loadConfig(sf *sharedFlags, set map[string]bool) (config.Config, error) {
	path := sf.configPath
	if path == "" {
		path = os.Getenv("TBIMPORT_CONFIG")
	}

	var cfg config.Config
	switch {
	case path != "":
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	default:
		if _, err := os.Stat(defaultConfigPath); err == nil {
			loaded, loadErr := config.Load(defaultConfigPath)
			if loadErr != nil {
				return config.Config{}, loadErr
			}
			cfg = loaded
		} else {
			cfg = config.Default()
		}
	}

	if set["baseurl"] {
		cfg.Upload.BaseURL = sf.baseURL
	}
	if set["separator"] {
		cfg.CSV.Separator = sf.separator
	}
	if set["batch"] {
		cfg.Upload.BatchSize = sf.batch
	}
	if set["delay"] {
		cfg.Upload.DelayMillis = sf.delayMS
	}
	if set["strict"] {
		cfg.Upload.Strict = sf.strict
	}
	if sf.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

// batchSize returns the configured batch size, or the per-command
// historical default when none was set.
func batchSize(cfg config.Config, fallback int) int {
	if cfg.Upload.BatchSize > 0 {
		return cfg.Upload.BatchSize
	}
	return fallback
}

// newLogger builds the run logger with a fresh run identifier.
func newLogger(cfg config.Config) *logging.Logger {
	return logging.New(cfg.Logging, version).With("run_id", uuid.NewString())
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// usageFor builds a FlagSet usage function with a one-line synopsis.
func usageFor(fs *flag.FlagSet, synopsis string) func() {
	return func() {
		fmt.Fprintf(fs.Output(), "Usage: %s\n\nFlags:\n", synopsis)
		fs.PrintDefaults()
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `tbimport %s (%s, built %s)

A cli tool to import external data into thingsboard.

Usage:
  tbimport csv [flags] <file.csv>    upload a single-device csv file
  tbimport multi [flags] <file.csv>  upload a csv file feeding many devices

Run "tbimport <command> -h" for the flags of a command.
`, version, commit, date)
}
