// fiu-bench measures fiu's decision-engine throughput and the accuracy of
// its PRNG-backed firing rate under concurrent load, reporting a markdown
// table.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"

	"github.com/albertito/fiu"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fiu-bench: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	Workers     int
	Duration    time.Duration
	Probability float64
	OutDir      string
	Subprocess  bool
}

func run() error {
	cfg := config{}

	flags := pflag.NewFlagSet("fiu-bench", pflag.ExitOnError)
	flags.IntVar(&cfg.Workers, "workers", runtime.GOMAXPROCS(0), "concurrent goroutines hammering Fail")
	flags.DurationVar(&cfg.Duration, "duration", 2*time.Second, "how long to run each scenario")
	flags.Float64Var(&cfg.Probability, "probability", 0.1, "probability for the PROB-method scenario")
	flags.StringVar(&cfg.OutDir, "out", ".benchmarks", "directory to write the markdown report to")
	flags.BoolVar(&cfg.Subprocess, "subprocess-isolation", false, "reseed the PRNG via ReseedForChild before running, as a forked child would")
	flags.Parse(os.Args[1:])

	f := fiu.New()
	if err := f.Init(); err != nil {
		return fmt.Errorf("initializing: %w", err)
	}

	if cfg.Subprocess {
		f.ReseedForChild()
	}

	var report strings.Builder

	report.WriteString(fmt.Sprintf("## fiu-bench run %s\n\n", time.Now().UTC().Format(time.RFC3339)))
	report.WriteString(fmt.Sprintf("- workers: %d\n- duration: %s\n- %s/%s\n\n",
		cfg.Workers, cfg.Duration, runtime.GOOS, runtime.GOARCH))

	results := []scenarioResult{
		runAlwaysScenario(f, cfg),
		runProbScenario(f, cfg),
		runDisabledScenario(f, cfg),
	}

	report.WriteString("| Scenario | Ops | Ops/sec | Fire rate |\n")
	report.WriteString("|:---|---:|---:|---:|\n")

	for _, r := range results {
		report.WriteString(fmt.Sprintf("| %s | %d | %.0f | %s |\n",
			r.label, r.ops, r.opsPerSec(), r.rateDescription()))
	}

	fmt.Print(report.String())

	if err := os.MkdirAll(cfg.OutDir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	outFile := filepath.Join(cfg.OutDir, fmt.Sprintf("fiu-bench_%s.md", time.Now().UTC().Format("20060102-150405")))

	if err := os.WriteFile(outFile, []byte(report.String()), 0o600); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	fmt.Fprintf(os.Stderr, "wrote %s\n", outFile)

	return nil
}

type scenarioResult struct {
	label    string
	ops      int64
	fires    int64
	duration time.Duration
	hasRate  bool
}

func (r scenarioResult) opsPerSec() float64 {
	if r.duration <= 0 {
		return 0
	}

	return float64(r.ops) / r.duration.Seconds()
}

func (r scenarioResult) rateDescription() string {
	if !r.hasRate {
		return "n/a"
	}

	return fmt.Sprintf("%.4f", float64(r.fires)/float64(r.ops))
}

func runAlwaysScenario(f *fiu.Fiu, cfg config) scenarioResult {
	name := "bench/always"

	if err := f.Enable(name, 1, nil, 0); err != nil {
		fmt.Fprintf(os.Stderr, "enable: %v\n", err)
	}

	defer f.Disable(name)

	ops, fires, dur := hammer(cfg, func() bool { return f.Fail(name) != 0 })

	return scenarioResult{label: "ALWAYS", ops: ops, fires: fires, duration: dur, hasRate: true}
}

func runProbScenario(f *fiu.Fiu, cfg config) scenarioResult {
	name := "bench/prob"

	if err := f.EnableRandom(name, 1, nil, 0, cfg.Probability); err != nil {
		fmt.Fprintf(os.Stderr, "enable_random: %v\n", err)
	}

	defer f.Disable(name)

	ops, fires, dur := hammer(cfg, func() bool { return f.Fail(name) != 0 })

	return scenarioResult{
		label: fmt.Sprintf("PROB (target=%.2f)", cfg.Probability),
		ops:   ops, fires: fires, duration: dur, hasRate: true,
	}
}

func runDisabledScenario(f *fiu.Fiu, cfg config) scenarioResult {
	name := "bench/never-enabled"

	ops, fires, dur := hammer(cfg, func() bool { return f.Fail(name) != 0 })

	return scenarioResult{label: "no point enabled", ops: ops, fires: fires, duration: dur, hasRate: true}
}

// hammer runs fn concurrently across cfg.Workers goroutines for
// cfg.Duration and returns the total call count, the count of calls for
// which fn returned true, and the actual elapsed time.
func hammer(cfg config, fn func() bool) (ops, fires int64, elapsed time.Duration) {
	var (
		opsCounter   int64
		firesCounter int64
		wg           sync.WaitGroup
	)

	stop := make(chan struct{})
	start := time.Now()

	wg.Add(cfg.Workers)

	for range cfg.Workers {
		go func() {
			defer wg.Done()

			for {
				select {
				case <-stop:
					return
				default:
				}

				if fn() {
					atomic.AddInt64(&firesCounter, 1)
				}

				atomic.AddInt64(&opsCounter, 1)
			}
		}()
	}

	time.Sleep(cfg.Duration)
	close(stop)
	wg.Wait()

	return atomic.LoadInt64(&opsCounter), atomic.LoadInt64(&firesCounter), time.Since(start)
}
