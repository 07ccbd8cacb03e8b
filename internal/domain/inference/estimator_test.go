package inference_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/playoffs/internal/domain/inference"
	. "github.com/smartystreets/goconvey/convey"
)

func seeded(seed uint64, iterations, warmup, chains int) inference.SamplerConfig {
	return inference.SamplerConfig{
		Iterations: iterations,
		Warmup:     warmup,
		Chains:     chains,
		Seed:       &seed,
	}
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func TestEstimator_Conjugate(t *testing.T) {
	Convey("Given an estimator with the conjugate sampler", t, func() {
		est := inference.NewEstimator()
		ctx := context.Background()
		So(est.SamplerName(), ShouldEqual, inference.SamplerConjugate)

		// counts: 1 -> 3, 2 -> 5, 3 -> 2
		labels := []int{2, 1, 2, 3, 2, 1, 2, 3, 1, 2}

		Convey("When fitting a known label sequence", func() {
			post, err := est.Estimate(ctx, labels, 3, seeded(7, 10_000, 2_000, 4))

			Convey("Then the posterior mean matches the conjugate closed form", func() {
				So(err, ShouldBeNil)
				So(post.N, ShouldEqual, 10)
				So(post.Counts, ShouldResemble, []int{3, 5, 2})
				expected := []float64{4.0 / 13, 6.0 / 13, 3.0 / 13}
				for j, c := range post.Components {
					So(c.Index, ShouldEqual, j+1)
					So(c.Exact, ShouldAlmostEqual, expected[j], 1e-12)
					So(c.Mean, ShouldAlmostEqual, expected[j], 1e-2)
				}
			})

			Convey("And the mean vector lies on the simplex", func() {
				So(err, ShouldBeNil)
				means := post.Means()
				So(sum(means), ShouldAlmostEqual, 1.0, 1e-9)
				for _, m := range means {
					So(m, ShouldBeGreaterThan, 0)
					So(m, ShouldBeLessThan, 1)
				}
			})

			Convey("And every draw lies on the simplex", func() {
				So(err, ShouldBeNil)
				draws := post.Draws()
				So(len(draws), ShouldEqual, 4*8_000)
				for _, d := range draws[:100] {
					So(sum(d), ShouldAlmostEqual, 1.0, 1e-9)
				}
			})

			Convey("And the diagnostics report convergence", func() {
				So(err, ShouldBeNil)
				So(post.Converged, ShouldBeTrue)
				So(post.MaxRHat, ShouldBeBetweenOrEqual, 0.99, 1.01)
				for _, c := range post.Components {
					So(c.ESS, ShouldBeGreaterThan, 1_000)
					So(c.Lower, ShouldBeLessThan, c.Mean)
					So(c.Upper, ShouldBeGreaterThan, c.Mean)
					So(c.Quantiles[2], ShouldBeBetween, c.Lower, c.Upper)
				}
			})

			Convey("And the most likely outcome is the modal label", func() {
				So(err, ShouldBeNil)
				So(post.MostLikely(), ShouldEqual, 2)
			})
		})

		Convey("When fitting twice with the same seed", func() {
			a, errA := est.Estimate(ctx, labels, 3, seeded(99, 2_000, 500, 3))
			b, errB := est.Estimate(ctx, labels, 3, seeded(99, 2_000, 500, 3))

			Convey("Then the results are identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a.Seed, ShouldEqual, uint64(99))
				So(a.Chains, ShouldResemble, b.Chains)
				So(a.Components, ShouldResemble, b.Components)
			})
		})

		Convey("When fitting without a seed", func() {
			cfg := inference.SamplerConfig{Iterations: 4_000, Warmup: 1_000, Chains: 2}
			a, errA := est.Estimate(ctx, labels, 3, cfg)
			b, errB := est.Estimate(ctx, labels, 3, cfg)

			Convey("Then the draws differ but agree statistically", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a.Seed, ShouldNotEqual, b.Seed)
				for j := range a.Components {
					So(a.Components[j].Mean, ShouldAlmostEqual, b.Components[j].Mean, 2e-2)
				}
			})
		})

		Convey("When the group has no observations", func() {
			post, err := est.Estimate(ctx, nil, 4, seeded(3, 10_000, 2_000, 4))

			Convey("Then the posterior is the uniform prior", func() {
				So(err, ShouldBeNil)
				So(post.PriorOnly, ShouldBeTrue)
				So(post.N, ShouldEqual, 0)
				for _, c := range post.Components {
					So(c.Exact, ShouldEqual, 0.25)
					So(c.Mean, ShouldAlmostEqual, 0.25, 1e-2)
				}
			})
		})

		Convey("When every chain is too short to diagnose", func() {
			cases := []struct {
				name       string
				iterations int
				chains     int
			}{
				{"one chain of four draws", 4, 1},
				{"two chains of seven draws", 7, 2},
			}
			for _, tc := range cases {
				Convey("With "+tc.name, func() {
					for seed := uint64(1); seed <= 50; seed++ {
						post, err := est.Estimate(ctx, []int{1, 2, 3, 2}, 3, seeded(seed, tc.iterations, 0, tc.chains))

						So(errors.Is(err, inference.ErrSamplingDivergence), ShouldBeTrue)
						So(post.Converged, ShouldBeFalse)
						So(math.IsInf(post.MaxRHat, 1), ShouldBeTrue)
					}
				})
			}
		})

		Convey("When the sampler is starved of draws", func() {
			post, err := est.Estimate(ctx, labels, 3, seeded(1, 1, 0, 1))

			Convey("Then divergence is surfaced with an R-hat outside the band", func() {
				So(errors.Is(err, inference.ErrSamplingDivergence), ShouldBeTrue)
				var de *inference.DivergenceError
				So(errors.As(err, &de), ShouldBeTrue)
				So(de.RHat > 1.1, ShouldBeTrue)
				So(math.IsInf(de.RHat, 1), ShouldBeTrue)
				So(post, ShouldNotBeNil)
				So(post.Converged, ShouldBeFalse)
			})
		})
	})
}

func TestEstimator_InvalidInput(t *testing.T) {
	Convey("Given an estimator", t, func() {
		est := inference.NewEstimator()
		ctx := context.Background()

		cases := []struct {
			name   string
			labels []int
			m      int
			cfg    inference.SamplerConfig
		}{
			{"label above m", []int{1, 4}, 3, seeded(1, 100, 10, 1)},
			{"label below 1", []int{0}, 3, seeded(1, 100, 10, 1)},
			{"m below 2", []int{1}, 1, seeded(1, 100, 10, 1)},
			{"no iterations", []int{1}, 3, seeded(1, 0, 0, 1)},
			{"no chains", []int{1}, 3, seeded(1, 100, 10, 0)},
			{"warmup consumes every draw", []int{1}, 3, seeded(1, 100, 100, 1)},
			{"negative warmup", []int{1}, 3, seeded(1, 100, -1, 1)},
		}

		for _, tc := range cases {
			Convey("When the input has "+tc.name, func() {
				post, err := est.Estimate(ctx, tc.labels, tc.m, tc.cfg)

				Convey("Then ErrInvalidInput is returned without a posterior", func() {
					So(errors.Is(err, inference.ErrInvalidInput), ShouldBeTrue)
					So(post, ShouldBeNil)
				})
			})
		}

		Convey("When the context is already canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := est.Estimate(canceled, []int{1, 2}, 3, seeded(1, 100, 10, 2))

			Convey("Then the context error is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestEstimator_Metropolis(t *testing.T) {
	Convey("Given an estimator with the Metropolis sampler", t, func() {
		est := inference.NewEstimator(inference.WithSampler(inference.NewMetropolisSampler()))
		ctx := context.Background()
		labels := []int{3, 1, 4, 4, 3, 2, 3, 3, 1, 4, 3}

		Convey("When fitting with enough draws", func() {
			post, err := est.Estimate(ctx, labels, 4, seeded(11, 20_000, 5_000, 4))

			Convey("Then it agrees with the conjugate posterior", func() {
				So(err, ShouldBeNil)
				So(post.Sampler, ShouldEqual, inference.SamplerMetropolis)
				So(post.Converged, ShouldBeTrue)
				for _, c := range post.Components {
					So(c.Mean, ShouldAlmostEqual, c.Exact, 2e-2)
				}
				So(sum(post.Means()), ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("And the tuned acceptance ratio is moderate", func() {
				So(err, ShouldBeNil)
				So(post.MeanAcceptance(), ShouldBeBetween, 0.1, 0.6)
			})
		})

		Convey("When the same seed is reused", func() {
			// Short chains may fail the R-hat check; the draws are returned
			// either way.
			a, _ := est.Estimate(ctx, labels, 4, seeded(5, 1_000, 500, 2))
			b, _ := est.Estimate(ctx, labels, 4, seeded(5, 1_000, 500, 2))

			Convey("Then the chains are identical", func() {
				So(a, ShouldNotBeNil)
				So(b, ShouldNotBeNil)
				So(a.Chains, ShouldResemble, b.Chains)
			})
		})
	})
}

func TestNewSampler(t *testing.T) {
	Convey("Given sampler names", t, func() {
		Convey("When a known name is requested", func() {
			s, err := inference.NewSampler("Metropolis")
			So(err, ShouldBeNil)
			So(s.Name(), ShouldEqual, inference.SamplerMetropolis)

			s, err = inference.NewSampler("")
			So(err, ShouldBeNil)
			So(s.Name(), ShouldEqual, inference.SamplerConjugate)
		})

		Convey("When an unknown name is requested", func() {
			_, err := inference.NewSampler("nuts")
			So(errors.Is(err, inference.ErrUnknownSampler), ShouldBeTrue)
		})
	})
}
