package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"sattelclub/internal/collector"
	"sattelclub/internal/config"
	"sattelclub/internal/coordinator"
	"sattelclub/internal/core"
	httpclient "sattelclub/internal/http"
	"sattelclub/internal/poll"
	"sattelclub/internal/progress"
	"sattelclub/internal/signup"
	"sattelclub/internal/telemetry"
)

type runOptions struct {
	poll        bool
	maxAttempts int
	deadline    time.Duration
	now         bool
	quiet       bool
	verbose     bool
	output      string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run [--poll] [--max-attempts n] [--deadline d]",
	Short: "Signs every enabled participant up for the next ride.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runOpts.output != "text" && runOpts.output != "json" {
			return fail(ExitError, fmt.Errorf("--output must be 'text' or 'json', got %q", runOpts.output))
		}
		if runOpts.maxAttempts < 0 {
			return fail(ExitError, fmt.Errorf("--max-attempts must be >= 0"))
		}
		cfg, _, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		telCfg, err := telemetry.ConfigFromEnv()
		if err != nil {
			return fail(ExitError, err)
		}
		tel, err := telemetry.Setup(cmd.Context(), telCfg)
		if err != nil {
			return fail(ExitError, err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tel.Shutdown(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: flushing traces: %v\n", err)
			}
		}()

		code := runSignup(cmd.Context(), cfg, runOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if code != ExitSuccess {
			return fail(code, nil)
		}
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runOpts.poll, "poll", false, "retry every checkingInterval until each signup is done")
	f.IntVar(&runOpts.maxAttempts, "max-attempts", 0, "max attempts per participant when polling (0 = config value)")
	f.DurationVar(&runOpts.deadline, "deadline", 0, "give up after this long (0 = no deadline)")
	f.BoolVar(&runOpts.now, "now", false, "start polling immediately instead of waiting for checkFrom")
	f.BoolVar(&runOpts.quiet, "quiet", false, "suppress progress output")
	f.BoolVar(&runOpts.verbose, "verbose", false, "enable debug output (request/response logging)")
	f.StringVar(&runOpts.output, "output", "text", "summary format: text, json")
	rootCmd.AddCommand(runCmd)
}

// runSignup performs the run and returns the process exit code.
func runSignup(ctx context.Context, cfg *config.Config, opts runOptions, stdout, stderr io.Writer) int {
	if opts.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.deadline)
		defer cancel()
	}

	now := time.Now()
	pollConfig := pollConfigFor(cfg, opts, now)
	target := targetFor(cfg, pollConfig, now)
	participants := core.EnabledParticipants(cfg.Participants())

	coll := collector.NewCollector()
	prog := progress.NewProgress(coll, participants, opts.quiet)
	prog.SetOutput(stderr)

	var debugLogger *httpclient.DebugLogger
	if opts.verbose {
		debugLogger = httpclient.NewDebugLogger(stderr)
	}
	client := httpclient.NewClient(httpclient.Options{
		Timeout: cfg.Timeout,
		Debug:   debugLogger,
	})

	driver := poll.NewDriver(signup.NewAttempt(client), core.MultiReporter{coll, prog}, core.RealClock{}, pollConfig)
	coord := coordinator.NewCoordinator(driver, coll, cfg.Parallel)

	prog.Printf("Signing up %d participant(s) for %s", len(participants), target.Slug())
	if !pollConfig.Once {
		if pollConfig.MaxAttempts == 0 && opts.deadline <= 0 {
			prog.Print("warning: polling without --max-attempts or --deadline never gives up while the ride does not exist")
		}
		if !pollConfig.StartAt.IsZero() && pollConfig.StartAt.After(now) {
			prog.Printf("Waiting until %s", pollConfig.StartAt.Format("Mon 2006-01-02 15:04:05"))
		}
		prog.Start(time.Second)
	}

	results := coord.Run(ctx, participants, target)

	prog.Stop()
	coll.Close()

	summary := coll.Compute(participants)
	if opts.output == "json" {
		collector.FormatJSON(stdout, summary)
	} else {
		collector.FormatText(stdout, summary)
	}

	return exitCode(results)
}

func pollConfigFor(cfg *config.Config, opts runOptions, now time.Time) poll.Config {
	if !opts.poll {
		return poll.Config{Once: true}
	}
	pc := poll.Config{
		Interval:    cfg.CheckingInterval,
		MaxAttempts: cfg.MaxAttempts,
	}
	if opts.maxAttempts > 0 {
		pc.MaxAttempts = opts.maxAttempts
	}
	if !opts.now {
		pc.StartAt = cfg.NextStart(now)
	}
	return pc
}

// targetFor resolves the ride from when the first round will run, so a run
// gated on next week's signup window targets next week's ride.
func targetFor(cfg *config.Config, pc poll.Config, now time.Time) core.Target {
	if pc.StartAt.After(now) {
		return cfg.Target(pc.StartAt)
	}
	return cfg.Target(now)
}

// exitCode is ExitSuccess only if every participant ended signed up.
func exitCode(results []coordinator.Result) int {
	for _, r := range results {
		if !r.State.IsDone() || r.State.Reason() != signup.ReasonSuccess {
			return ExitIncomplete
		}
	}
	return ExitSuccess
}

func countEnabled(participants []core.Participant) int {
	return len(core.EnabledParticipants(participants))
}
