package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/playoffs/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.YearCutoff, convey.ShouldEqual, 2010)
				convey.So(cfg.Iterations, convey.ShouldEqual, 10_000)
				convey.So(cfg.Chains, convey.ShouldEqual, 4)
				convey.So(cfg.OutcomeCardinality, convey.ShouldResemble, map[string]int{"1": 3, "2": 3, "3": 4, "4": 4})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PLAYOFFS_YEAR_CUTOFF", "2012")
			_ = os.Setenv("PLAYOFFS_SAMPLER", "metropolis")
			_ = os.Setenv("PLAYOFFS_ITERATIONS", "4000")
			_ = os.Setenv("PLAYOFFS_SEED", "77")
			_ = os.Setenv("PLAYOFFS_CREDIBLE_MASS", "0.9")
			_ = os.Setenv("PLAYOFFS_METROPOLIS_STEP", "0.4")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.YearCutoff, convey.ShouldEqual, 2012)
				convey.So(cfg.Sampler, convey.ShouldEqual, "metropolis")
				convey.So(cfg.Iterations, convey.ShouldEqual, 4000)
				convey.So(cfg.Seed, convey.ShouldEqual, uint64(77))
				convey.So(cfg.CredibleMass, convey.ShouldEqual, 0.9)
				convey.So(cfg.SamplerConfig().Warmup, convey.ShouldEqual, 2000)
				convey.So(cfg.MetropolisStep, convey.ShouldEqual, 0.4)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
data_path: /data/seasons.csv
year_cutoff: 2008
chains: 2
warmup: 1000
plot_dir: plots
outcome_cardinality:
  "4": 0
  "5": 4
column_final_position: Final
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PLAYOFFS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and merge with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataPath, convey.ShouldEqual, "/data/seasons.csv")
				convey.So(cfg.YearCutoff, convey.ShouldEqual, 2008)
				convey.So(cfg.Chains, convey.ShouldEqual, 2)
				convey.So(cfg.PlotDir, convey.ShouldEqual, "plots")
				convey.So(cfg.ColumnFinalPosition, convey.ShouldEqual, "Final")
				convey.So(cfg.ColumnYear, convey.ShouldEqual, "Year")

				s, err := cfg.Scheme()
				convey.So(err, convey.ShouldBeNil)
				convey.So(s.Ranks(), convey.ShouldResemble, []int{1, 2, 3, 5})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("chains: 2\niterations: 3000\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PLAYOFFS_CONFIG", tmpFile)
			_ = os.Setenv("PLAYOFFS_CHAINS", "6")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Chains, convey.ShouldEqual, 6)        // Overridden by env
				convey.So(cfg.Iterations, convey.ShouldEqual, 3000) // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("chains: [unclosed\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PLAYOFFS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PLAYOFFS_CONFIG", "/nonexistent/playoffs.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("PLAYOFFS_ITERATIONS", "many")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with an invalid value", func() {
			_ = os.Setenv("PLAYOFFS_SAMPLER", "gibbs")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"PLAYOFFS_CONFIG",
		"PLAYOFFS_YEAR_CUTOFF",
		"PLAYOFFS_SAMPLER",
		"PLAYOFFS_ITERATIONS",
		"PLAYOFFS_CHAINS",
		"PLAYOFFS_SEED",
		"PLAYOFFS_CREDIBLE_MASS",
		"PLAYOFFS_METROPOLIS_STEP",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(content string) string {
	f, err := os.CreateTemp("", "playoffs-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	return f.Name()
}
