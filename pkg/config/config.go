// Package config is the ambient YAML-loadable configuration for an
// exploration session, grounded on the merge-with-defaults shape of
// pkg/fuzzer/symbolic/types.go's SymbolicConfig/MergeWithDefaults, adapted
// from EVM-fuzzing knobs to the env vars symbolic_explore.cpp reads
// (SYMEX_TESTCASE/SYMEX_TIMEBUDGET/SYMEX_ERREXIT) plus the solver timeout
// the teacher's SolverConfig models.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the full set of knobs a session can be started with. Every
// field has a zero-value-safe default applied by MergeWithDefaults, the
// same pattern SymbolicConfig.MergeWithDefaults follows.
type Config struct {
	// TestcaseDir is where interesting/erroring test cases are written
	// (SYMEX_TESTCASE).
	TestcaseDir string `yaml:"testcase_dir"`

	// TimeBudget bounds total wall-clock exploration time; zero means no
	// limit (SYMEX_TIMEBUDGET, seconds in the env var, a duration here).
	TimeBudget time.Duration `yaml:"time_budget"`

	// ExitOnError stops exploration the first time a guest-reported host
	// error is observed (SYMEX_ERREXIT).
	ExitOnError bool `yaml:"exit_on_error"`

	// SolverTimeoutMS bounds a single Z3 Check() call.
	SolverTimeoutMS int `yaml:"solver_timeout_ms"`

	// Seed is loaded from YAML but no code reads it: RandomUnnegated
	// always draws from math/rand/v2's default, runtime-seeded source
	// (§9 Open Question: randomness seeding).
	Seed *uint64 `yaml:"seed"`

	// MaxCacheEntries is a size for the constraint-simplification cache
	// (solver.ConstraintManager). No code reads it; NewConstraintManager
	// takes its bound as an argument.
	MaxCacheEntries int `yaml:"max_cache_entries"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		TestcaseDir:     "",
		TimeBudget:      0,
		ExitOnError:     false,
		SolverTimeoutMS: 5000,
		MaxCacheEntries: 4096,
	}
}

// MergeWithDefaults fills any zero-valued field of c with Default()'s
// value, the same per-field fallback Behavior as the teacher's
// MergeWithDefaults.
func (c Config) MergeWithDefaults() Config {
	d := Default()
	if c.SolverTimeoutMS == 0 {
		c.SolverTimeoutMS = d.SolverTimeoutMS
	}
	if c.MaxCacheEntries == 0 {
		c.MaxCacheEntries = d.MaxCacheEntries
	}
	return c
}

// Load reads and parses a YAML configuration file, then applies defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	return c.MergeWithDefaults(), nil
}

// LoadFromEnv overlays the three environment variables
// symbolic_explore.cpp reads onto c, mirroring that file reading them at
// startup via getenv.
func (c Config) LoadFromEnv() Config {
	if v := os.Getenv("SYMEX_TESTCASE"); v != "" {
		c.TestcaseDir = v
	}
	if v := os.Getenv("SYMEX_TIMEBUDGET"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.TimeBudget = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("SYMEX_ERREXIT"); v != "" {
		c.ExitOnError = v != "0"
	}
	return c
}
