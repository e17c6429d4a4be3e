// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-stats-exporter/internal/domain"
	"github.com/naka-gawa/github-stats-exporter/internal/gateway"
	"github.com/naka-gawa/github-stats-exporter/internal/metrics"
	"github.com/naka-gawa/github-stats-exporter/internal/usecase"
)

var version = "dev"

// maxSeconds bounds the duration flags so that seconds() cannot overflow.
const maxSeconds = math.MaxUint16

// options holds the parsed command line of the exporter.
type options struct {
	repository     string
	apiURL         string
	port           int
	timeout        int
	connectTimeout int
	fetchInterval  int
	logLevel       string

	logger *log.Logger
}

func (o *options) validate() error {
	var errs []error
	if o.port < 0 || o.port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", o.port))
	}
	for _, d := range []struct {
		name  string
		value int
	}{
		{"timeout", o.timeout},
		{"connect timeout", o.connectTimeout},
		{"fetch interval", o.fetchInterval},
	} {
		if d.value <= 0 || d.value > maxSeconds {
			errs = append(errs, fmt.Errorf("%s must be a positive number of seconds up to %d, got %d", d.name, maxSeconds, d.value))
		}
	}
	return errors.Join(errs...)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func newRootCmd() *cobra.Command {
	o := &options{}

	rootCmd := &cobra.Command{
		Use:   "github-stats-exporter",
		Short: "Exports GitHub repository stats as Prometheus metrics",
		Long: `github-stats-exporter polls the public metadata of a GitHub repository
and publishes its open issue count and star count as Prometheus gauges.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := resolveLogLevel(o.logLevel, cmd.Flags().Changed("log-level"))
			if err != nil {
				return err
			}
			o.logger = newLogger(cmd.ErrOrStderr(), level)
			return o.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExporter(cmd.Context(), o)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&o.repository, "repository", "r", "", "Repository to monitor, as owner/name (required)")
	flags.IntVarP(&o.timeout, "timeout", "t", 5, "Timeout for GitHub requests in seconds")
	flags.IntVarP(&o.connectTimeout, "connect-timeout", "c", 5, "Connect timeout for GitHub requests in seconds")
	flags.StringVar(&o.logLevel, "log-level", "info", fmt.Sprintf("Log level, one of %v (env %s)", logLevels, logLevelEnv))
	flags.StringVar(&o.apiURL, "api-url", "", "Base URL of the GitHub API, with trailing slash")
	_ = flags.MarkHidden("api-url")
	_ = rootCmd.MarkPersistentFlagRequired("repository")

	rootCmd.Flags().IntVarP(&o.port, "port", "p", 8000, "Port to serve metrics on")
	rootCmd.Flags().IntVarP(&o.fetchInterval, "fetch-interval", "f", 60, "Interval in seconds to refresh GitHub stats")

	rootCmd.AddCommand(newFetchCmd(o))
	return rootCmd
}

// newFetcher builds the stats fetcher shared by the exporter and the fetch command.
func newFetcher(o *options, onRateLimited func()) (*gateway.StatsFetcher, error) {
	repo, err := domain.ParseRepository(o.repository)
	if err != nil {
		return nil, err
	}
	httpClient, err := gateway.NewHTTPClient(gateway.ClientConfig{
		ConnectTimeout: seconds(o.connectTimeout),
		Timeout:        seconds(o.timeout),
		OnRateLimited:  onRateLimited,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build GitHub client: %w", err)
	}
	fetcher := gateway.NewStatsFetcher(repo, httpClient, o.logger)
	if o.apiURL != "" {
		if err := fetcher.WithBaseURL(o.apiURL); err != nil {
			return nil, err
		}
	}
	return fetcher, nil
}

func runExporter(ctx context.Context, o *options) error {
	m, err := metrics.New()
	if err != nil {
		return err
	}

	fetcher, err := newFetcher(o, m.RateLimited)
	if err != nil {
		return err
	}

	poller, err := usecase.NewPoller(usecase.PollerConfig{
		Fetcher:    fetcher,
		OpenIssues: m.OpenIssues,
		Stargazers: m.Stargazers,
		Observer:   m,
		Interval:   seconds(o.fetchInterval),
		Logger:     o.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create poller: %w", err)
	}

	ln, err := metrics.Listen(o.port)
	if err != nil {
		return err
	}
	server := metrics.NewServer(m.Registry, o.logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	o.logger.Info("starting exporter", "repository", o.repository, "url", fetcher.URL())

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return server.Serve(egCtx, ln)
	})
	eg.Go(func() error {
		return poller.Run(egCtx)
	})
	return eg.Wait()
}

// Execute builds the command tree and runs it.
// This is called by main.main(). It exits the process with status 1 on failure.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
