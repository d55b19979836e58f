// falcon-vulns queries CrowdStrike Falcon Spotlight for open
// vulnerabilities and exports the results as XLSX, CSV, or TXT.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/Sternrassler/falcon-vulns/pkg/auth"
	"github.com/Sternrassler/falcon-vulns/pkg/client"
	"github.com/Sternrassler/falcon-vulns/pkg/export"
	"github.com/Sternrassler/falcon-vulns/pkg/logging"
	"github.com/Sternrassler/falcon-vulns/pkg/models"
	"github.com/Sternrassler/falcon-vulns/pkg/progress"
)

const version = "1.0.0"

// Exit codes reported to the calling shell.
const (
	exitOK           = 0
	exitAuthError    = 1
	exitNetworkError = 2
	exitInvalidArgs  = 3
	exitAPIError     = 4
	exitExportError  = 5
)

// errInvalidArgs marks command line validation failures.
var errInvalidArgs = errors.New("invalid arguments")

// exportError marks a failure while writing the export file.
type exportError struct {
	path string
	err  error
}

func (e *exportError) Error() string {
	return fmt.Sprintf("Cannot write to %s: %v", e.path, e.err)
}

func (e *exportError) Unwrap() error {
	return e.err
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and maps the outcome to a process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	if err := app.Run(args); err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitCodeFor(err)
	}
	return exitOK
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "falcon-vulns",
		Usage:     "query CrowdStrike Falcon Spotlight vulnerabilities and export the results",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "device-type",
				Usage: "device type to query: CLIENT, SERVER or BOTH (required)",
			},
			&cli.StringSliceFlag{
				Name:  "severity",
				Usage: "severity to include: CRITICAL, HIGH or MEDIUM (repeatable, required)",
			},
			&cli.IntFlag{
				Name:  "min-days-open",
				Usage: "only include vulnerabilities open at least this many days (required)",
			},
			&cli.StringFlag{
				Name:  "ad-domain",
				Usage: "restrict results to one Active Directory domain",
			},
			&cli.StringFlag{
				Name:  "hostname",
				Usage: "restrict results to a single host",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "output file path (default: generated timestamped filename)",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: "XLSX",
				Usage: "export format: XLSX, CSV or TXT",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis address for the OAuth token cache",
				EnvVars: []string{"FALCON_REDIS_URL"},
			},
			&cli.StringFlag{
				Name:  "metrics-listen",
				Usage: "address to serve Prometheus metrics on, e.g. :9090",
			},
		},
		OnUsageError: func(c *cli.Context, err error, isSubcommand bool) error {
			return fmt.Errorf("%w: %v", errInvalidArgs, err)
		},
		Action: runQuery,
	}
}

func runQuery(c *cli.Context) error {
	level := logging.LevelInfo
	if c.Bool("verbose") {
		level = logging.LevelDebug
	}
	logger := logging.Setup(logging.Config{
		Level:  level,
		Pretty: true,
		Redact: true,
		Output: c.App.ErrWriter,
	})

	criteria, err := criteriaFromCommand(c)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}

	format, err := models.ParseExportFormat(c.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}

	authCtx, err := auth.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := client.DefaultConfig(authCtx)
	if redisURL := c.String("redis-url"); redisURL != "" {
		cfg.Redis = connectRedis(ctx, redisURL, logger)
	}

	if addr := c.String("metrics-listen"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Warn().Err(err).Msg("Metrics listener stopped")
			}
		}()
		logger.Info().Str("addr", addr).Msg("Serving Prometheus metrics")
	}

	falcon, err := client.New(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}

	if err := falcon.Authenticate(ctx); err != nil {
		return err
	}

	reporter := progress.New()
	reporter.Start()
	records, err := falcon.QueryVulnerabilities(ctx, criteria,
		func(page, totalPages, count int) {
			reporter.Update(page, totalPages, count)
		})
	reporter.Stop()
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(c.App.Writer,
		"Found %d vulnerabilities matching criteria\n", len(records))

	path := export.ResolvePath(c.String("output"), format)
	if err := export.WriteFile(path, format, records); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Export failed")
		return &exportError{path: path, err: err}
	}

	logger.Info().
		Str("path", path).
		Str("format", string(format)).
		Int("records", len(records)).
		Msg("Export written")
	fmt.Fprintf(c.App.Writer, "Exported to: %s\n", path)
	return nil
}

// criteriaFromCommand builds the filter criteria from the command line.
// All three core selectors are mandatory.
func criteriaFromCommand(c *cli.Context) (models.FilterCriteria, error) {
	if c.String("device-type") == "" {
		return models.FilterCriteria{}, fmt.Errorf("--device-type is required")
	}
	deviceType, err := models.ParseDeviceType(c.String("device-type"))
	if err != nil {
		return models.FilterCriteria{}, err
	}

	if len(c.StringSlice("severity")) == 0 {
		return models.FilterCriteria{}, fmt.Errorf("--severity is required")
	}
	var severities []models.Severity
	for _, s := range c.StringSlice("severity") {
		severity, err := models.ParseSeverity(s)
		if err != nil {
			return models.FilterCriteria{}, err
		}
		severities = append(severities, severity)
	}

	if !c.IsSet("min-days-open") {
		return models.FilterCriteria{}, fmt.Errorf("--min-days-open is required")
	}

	criteria := models.FilterCriteria{
		DeviceType:  deviceType,
		Severities:  severities,
		MinDaysOpen: c.Int("min-days-open"),
		ADDomain:    c.String("ad-domain"),
		Hostname:    c.String("hostname"),
	}
	if err := criteria.Validate(); err != nil {
		return models.FilterCriteria{}, err
	}
	return criteria, nil
}

// connectRedis connects to the token cache. A cache outage is not fatal;
// the run proceeds with direct token fetches.
func connectRedis(ctx context.Context, addr string, logger zerolog.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", addr).Msg("Redis unavailable, token caching disabled")
		rdb.Close()
		return nil
	}

	logger.Debug().Str("addr", addr).Msg("Connected to Redis token cache")
	return rdb
}

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}

	var exportErr *exportError
	if errors.As(err, &exportErr) {
		return exitExportError
	}
	if errors.Is(err, errInvalidArgs) {
		return exitInvalidArgs
	}
	if errors.Is(err, auth.ErrMissingEnv) {
		return exitAuthError
	}

	switch client.Classify(err) {
	case client.ErrorClassAuth:
		return exitAuthError
	case client.ErrorClassNetwork:
		return exitNetworkError
	default:
		return exitAPIError
	}
}
