// Command symex drives a concolic exploration session from the command
// line — cobra/pflag wiring around pkg/explore.Driver, grounded on the
// teacher's cmd/simulator/main.go (flag-driven CLI reporting a structured
// result to stdout), generalized to cobra subcommands for the two modes
// original_source/vp/src/symex/symbolic_explore.cpp itself supports:
// full exploration and single test-case replay.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"symex/internal/demo"
	"symex/pkg/config"
	"symex/pkg/execctx"
	"symex/pkg/explore"
	"symex/pkg/kernel/akitakernel"
	"symex/pkg/solver"
	"symex/pkg/testcase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "symex",
		Short: "Concolic exploration driver",
	}

	var (
		configPath  string
		testcaseDir string
		timeBudget  time.Duration
		exitOnError bool
		solverMS    int
	)
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&testcaseDir, "testcase-dir", "", "directory to write interesting test cases to (overrides SYMEX_TESTCASE)")
	root.PersistentFlags().DurationVar(&timeBudget, "time-budget", 0, "stop exploring after this long (overrides SYMEX_TIMEBUDGET)")
	root.PersistentFlags().BoolVar(&exitOnError, "exit-on-error", false, "stop at the first guest error (overrides SYMEX_ERREXIT)")
	root.PersistentFlags().IntVar(&solverMS, "solver-timeout-ms", 0, "per-query solver timeout in milliseconds")

	loadConfig := func() (config.Config, error) {
		cfg := config.Default()
		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				return config.Config{}, err
			}
			cfg = loaded
		}
		cfg = cfg.LoadFromEnv()
		if testcaseDir != "" {
			cfg.TestcaseDir = testcaseDir
		}
		if timeBudget != 0 {
			cfg.TimeBudget = timeBudget
		}
		if exitOnError {
			cfg.ExitOnError = true
		}
		if solverMS != 0 {
			cfg.SolverTimeoutMS = solverMS
		}
		return cfg.MergeWithDefaults(), nil
	}

	root.AddCommand(newExploreCmd(loadConfig))
	root.AddCommand(newReplayCmd(loadConfig))
	return root
}

// wireDemo builds a solver, an execctx.Context, the demo guest program, and
// a kernel around it, all sharing the same Context — the Driver's Advance
// and the program's BVC/Trace calls must observe the same path tree and
// installed store.
func wireDemo(cfg config.Config) (*solver.Solver, *execctx.Context, *akitakernel.Kernel) {
	sv := solver.New(solver.NewZ3Backend(cfg.SolverTimeoutMS))
	execCtx := execctx.New(sv)
	program := demo.New(execCtx, sv)
	kern := akitakernel.New(program, 1*sim.GHz)
	return sv, execCtx, kern
}

func newExploreCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Run the exploration loop until the path tree is exhausted or the time budget expires",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			sv, execCtx, kern := wireDemo(cfg)
			defer sv.Close()

			d := explore.New(cfg, execCtx, kern)
			report, err := d.Explore(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Unique paths found: %d\n", report.UniquePaths)
			fmt.Printf("Solver time: %s\n", report.SolverTime)
			fmt.Printf("Errors found: %d\n", report.Errors)
			fmt.Printf("Testcase directory: %s\n", report.TestcaseDir)
			if cfg.ExitOnError && report.Errors > 0 {
				cmd.SilenceUsage = true
				return fmt.Errorf("stopped at the first guest error")
			}
			return nil
		},
	}
}

func newReplayCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var testcasePath string
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a single recorded test case against the guest program",
		RunE: func(cmd *cobra.Command, args []string) error {
			if testcasePath == "" {
				return fmt.Errorf("--testcase is required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			tc, err := testcase.ReadFile(testcasePath)
			if err != nil {
				return err
			}

			sv, execCtx, kern := wireDemo(cfg)
			defer sv.Close()

			outcome, err := explore.RunSingle(context.Background(), execCtx, kern, tc)
			if err != nil {
				return err
			}

			fmt.Printf("Exit code: %d\n", outcome.ExitCode)
			if outcome.HostError != nil {
				fmt.Printf("Host error: %v\n", outcome.HostError)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&testcasePath, "testcase", "", "path to a test case written by 'symex explore'")
	return cmd
}
