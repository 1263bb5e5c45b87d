package main

import (
	"fmt"
	"io"
	"os"

	"scheddemo/config"
	"scheddemo/constants"
	"scheddemo/debug"
	"scheddemo/harness"
	"scheddemo/kfetch"
	"scheddemo/metrics"
	"scheddemo/spin"
	"scheddemo/trace"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// env is everything a run touches outside the process.
type env struct {
	platform harness.Platform
	stdout   io.Writer
	announce func(string)
}

func defaultEnv() env {
	return env{
		platform: harness.System(),
		stdout:   os.Stdout,
	}
}

// options mirrors the command line.
type options struct {
	threads    int
	seconds    float64
	policies   []string
	priorities []int
	core       int
	roundSync  bool

	report     string
	metrics    string
	kfetchPath string
	kfetchMask string
	quiet      bool
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// COMMAND
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func newRootCmd(e env) *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "sched_demo -n <count> -t <seconds> -s <policy,...> [-p <priority,...>]",
		Short: "Run busy-wait workers on one core under chosen scheduling classes",
		Long: `sched_demo creates one worker thread per entry of -s, pins every thread to a
single CPU, gives each its scheduling class and priority, then releases all
of them together. Each worker runs three busy-wait iterations of -t seconds
and announces the start of each one, so the output shows the order the
kernel chose to run them in.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Flags(), o, e)
		},
	}
	bindFlags(cmd.Flags(), &o)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", config.ErrConfig, err)
	})
	return cmd
}

func bindFlags(fs *pflag.FlagSet, o *options) {
	fs.IntVarP(&o.threads, "threads", "n", 0, "number of worker threads")
	fs.Float64VarP(&o.seconds, "time", "t", 0, "busy-wait seconds per iteration")
	fs.StringSliceVarP(&o.policies, "policies", "s", nil, "comma-separated classes, FIFO or OTHER, one per thread")
	fs.IntSliceVarP(&o.priorities, "priorities", "p", nil, "comma-separated priorities, one per thread (only FIFO entries matter)")
	fs.IntVarP(&o.core, "core", "c", constants.DefaultCore, "CPU every thread is pinned to")
	fs.BoolVar(&o.roundSync, "round-sync", false, "rendezvous all workers again after every iteration")

	fs.StringVar(&o.report, "report", "", "write a JSON run report to this file")
	fs.StringVar(&o.metrics, "metrics", "", "write Prometheus metrics in textfile format to this file")
	fs.StringVar(&o.kfetchPath, "kfetch", "", "read host information from this kfetch device (e.g. "+constants.KfetchDevice+")")
	fs.StringVar(&o.kfetchMask, "kfetch-mask", "all", "kfetch fields: number, all, or names from release,cpu,cpus,mem,procs,uptime")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "do not announce iteration starts")
}

// requiredFlags must appear on every command line.
var requiredFlags = []string{"threads", "time", "policies"}

// buildConfig turns parsed flags into a validated configuration. Without
// -p every priority is 0, which is only accepted when no FIFO entry needs one.
func buildConfig(fs *pflag.FlagSet, o options) (config.RunConfig, error) {
	for _, name := range requiredFlags {
		if !fs.Changed(name) {
			f := fs.Lookup(name)
			return config.RunConfig{}, fmt.Errorf("%w: -%s/--%s is required", config.ErrConfig, f.Shorthand, f.Name)
		}
	}
	policies, err := config.ParsePolicies(o.policies)
	if err != nil {
		return config.RunConfig{}, err
	}
	priorities := o.priorities
	if !fs.Changed("priorities") {
		priorities = make([]int, len(policies))
		for i, p := range policies {
			if p.RealTime() {
				return config.RunConfig{}, fmt.Errorf("%w: -p is required when a FIFO policy is given (thread %d)", config.ErrConfig, i)
			}
		}
	}
	if o.seconds < 0 {
		return config.RunConfig{}, fmt.Errorf("%w: -t must not be negative", config.ErrConfig)
	}
	return config.New(o.threads, spin.Seconds(o.seconds), policies, priorities,
		config.WithCore(o.core),
		config.WithRoundSync(o.roundSync))
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// RUN
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func run(fs *pflag.FlagSet, o options, e env) error {
	cfg, err := buildConfig(fs, o)
	if err != nil {
		return err
	}

	var host *kfetch.Info
	if o.kfetchPath != "" {
		mask, err := kfetch.ParseMask(o.kfetchMask)
		if err != nil {
			return fmt.Errorf("%w: %w", config.ErrConfig, err)
		}
		text, err := kfetch.Fetch(o.kfetchPath, mask)
		if err != nil {
			debug.DropMessage("kfetch", err.Error()+"; continuing without host information")
		} else {
			info := kfetch.Parse(text)
			host = &info
			if !o.quiet {
				_, _ = io.WriteString(e.stdout, text)
			}
		}
	}

	var observers []harness.Observer
	if !o.quiet {
		observers = append(observers, newAnnouncer(cfg.Threads(), e.announce))
	}
	var rec *trace.Recorder
	if o.report != "" {
		rec = trace.NewRecorder(cfg.Threads())
		observers = append(observers, rec)
	}
	var reg *prom.Registry
	if o.metrics != "" {
		reg = prom.NewRegistry()
		exp, err := metrics.NewExporter(cfg, reg, metrics.Options{})
		if err != nil {
			return err
		}
		observers = append(observers, exp)
	}

	results, err := harness.Run(cfg,
		harness.WithPlatform(e.platform),
		harness.WithObserver(harness.Tee(observers...)))
	if err != nil {
		return err
	}

	if o.report != "" {
		rep, err := trace.NewReport(cfg, results, rec)
		if err != nil {
			return err
		}
		rep.Host = host
		if err := rep.WriteFile(o.report); err != nil {
			return err
		}
		if !o.quiet {
			if err := rep.Summary(e.stdout); err != nil {
				return err
			}
		}
	}
	if reg != nil {
		if err := metrics.WriteTextfile(o.metrics, reg); err != nil {
			return err
		}
	}
	return nil
}
