package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gqlfuzz/internal/config"
	"gqlfuzz/internal/discovery"
	"gqlfuzz/internal/fuzzer"
	"gqlfuzz/internal/graphql"
	"gqlfuzz/internal/httpclient"
	"gqlfuzz/internal/logger"
	"gqlfuzz/internal/reporter"
	"gqlfuzz/internal/schema"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// cliFlags holds the raw command-line values before they are merged into the config.
type cliFlags struct {
	configPath     string
	targetURL      string
	token          string
	iterations     int
	depth          int
	logFile        string
	concurrency    int
	seed           int64
	jsonOutputFile string
	findEndpoint   bool
	verbose        bool
}

func newRootCmd() *cobra.Command {
	f := &cliFlags{}
	cmd := &cobra.Command{
		Use:   "gqlfuzz --url <endpoint>",
		Short: "GraphQL fuzzing tool with logging",
		Long: `gqlfuzz introspects a GraphQL endpoint, builds random queries from the
discovered types and fields, appends a syntactic irritant to each one and logs
every response classified as valid or error for manual triage.

Settings are read from gqlfuzz.yaml in the current directory when present.
Command-line flags override the file.`,
		Example: `  # Ten single-field queries against a local server
  gqlfuzz --url http://localhost:4000/graphql

  # Authenticated run, three fields per query, JSON report
  gqlfuzz --url https://api.example.com/graphql --token $TOKEN --depth 3 --iterations 200 --output-json report.json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", config.DefaultPath, "Path to the YAML configuration file")
	flags.StringVar(&f.targetURL, "url", "", "GraphQL endpoint URL (required)")
	flags.StringVar(&f.token, "token", "", "Bearer token for authentication")
	flags.IntVar(&f.iterations, "iterations", defaults.Iterations, "Number of fuzzing iterations")
	flags.IntVar(&f.depth, "depth", defaults.Depth, "Depth of generated queries")
	flags.StringVar(&f.logFile, "log", defaults.Output.LogFile, "File to log responses")
	flags.IntVar(&f.concurrency, "concurrency", defaults.Concurrency, "Number of iterations in flight")
	flags.Int64Var(&f.seed, "seed", 0, "Random seed (0 picks one from the clock)")
	flags.StringVar(&f.jsonOutputFile, "output-json", "", "Path to save a JSON report of the run")
	flags.BoolVar(&f.findEndpoint, "find-endpoint", false, "Treat --url as a site root and probe common GraphQL paths")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Print DEBUG entries on the console")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// applyFlags copies explicitly set flags over the file configuration.
func applyFlags(cmd *cobra.Command, f *cliFlags, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.Target = f.targetURL
	}
	if flags.Changed("token") {
		cfg.Token = f.token
	}
	if flags.Changed("iterations") {
		cfg.Iterations = f.iterations
	}
	if flags.Changed("depth") {
		cfg.Depth = f.depth
	}
	if flags.Changed("log") {
		cfg.Output.LogFile = f.logFile
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if flags.Changed("seed") {
		cfg.Seed = f.seed
	}
	if flags.Changed("output-json") {
		cfg.Output.OutputFile = f.jsonOutputFile
	}
	if flags.Changed("find-endpoint") {
		cfg.FindEndpoint = f.findEndpoint
	}
	if flags.Changed("verbose") {
		cfg.Output.Verbose = f.verbose
	}
}

func run(cmd *cobra.Command, f *cliFlags) error {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, f, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		FilePath:     cfg.Output.LogFile,
		Console:      cmd.ErrOrStderr(),
		ConsoleLevel: logger.INFO,
	})
	if err != nil {
		return err
	}
	defer log.Close()
	if cfg.Output.Verbose {
		log.SetMinLevel(logger.DEBUG)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := httpclient.NewClient(log, httpclient.ClientOptions{
		Timeout:            time.Duration(cfg.TimeoutSeconds) * time.Second,
		FollowRedirects:    true,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		UserAgent:          cfg.UserAgent,
		MaxRetries:         cfg.MaxRetries,
		RequestDelay:       time.Duration(cfg.DelayMS) * time.Millisecond,
		AuthHeaders:        cfg.RequestHeaders(),
	})
	defer client.CloseIdleConnections()

	endpoint := cfg.Target
	if cfg.FindEndpoint {
		endpoint = discovery.NewGraphQLFinder(client, log).FindEndpoint(ctx, cfg.Target)
		if endpoint == "" {
			return fmt.Errorf("no GraphQL endpoint found under %s", cfg.Target)
		}
	}

	runSeed := cfg.Seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}
	runID := uuid.NewString()
	log.Info("Run %s against %s (seed %d)", runID, endpoint, runSeed)

	rep := reporter.New(log, cmd.OutOrStdout())
	runner := fuzzer.NewRunner(
		graphql.NewTransport(client, endpoint),
		fuzzer.NewRandPicker(runSeed),
		rep,
		log,
		fuzzer.Options{
			Iterations:  cfg.Iterations,
			Depth:       cfg.Depth,
			Concurrency: cfg.Concurrency,
			KeepRecords: cfg.Output.OutputFile != "",
			Synth: fuzzer.SynthOptions{
				ExcludeMetaTypes:  cfg.ExcludeMetaTypes,
				FailOnEmptyFields: cfg.FailOnEmptyFields,
			},
		},
	)

	startTime := time.Now()
	res, runErr := runner.Run(ctx)

	var discErr *schema.DiscoveryError
	if errors.As(runErr, &discErr) {
		// Logged by the discoverer; exits with status 0.
		return nil
	}
	if errors.Is(runErr, context.Canceled) {
		log.Warn("Interrupted, %d of %d iterations completed.", rep.Summary().Total, cfg.Iterations)
		runErr = nil
	}

	rep.PrintSummary()

	if cfg.Output.OutputFile != "" {
		report := reporter.NewReport(runID, endpoint, startTime)
		report.Finalize(time.Now(), startTime, cfg.Iterations, cfg.Depth, len(res.Schema.Types), rep.Summary(), res.Records)
		if err := reporter.WriteJSONReport(report, cfg.Output.OutputFile); err != nil {
			log.Error("Failed to write JSON report: %v", err)
		} else {
			log.Info("JSON report saved to %s", cfg.Output.OutputFile)
		}
	}

	return runErr
}
