package inference

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMetropolisOptions(t *testing.T) {
	Convey("Given a Metropolis sampler", t, func() {
		Convey("When built without options", func() {
			s := NewMetropolisSampler()

			Convey("Then the defaults apply", func() {
				So(s.initialStep, ShouldEqual, DefaultInitialStep)
				So(s.initRadius, ShouldEqual, DefaultInitRadius)
				So(s.adaptWindow, ShouldEqual, DefaultAdaptWindow)
			})
		})

		Convey("When tuning is passed through NewSampler", func() {
			built, err := NewSampler(SamplerMetropolis, WithInitialStep(0.3), WithInitRadius(0.5), WithAdaptWindow(20))
			So(err, ShouldBeNil)
			s, ok := built.(*MetropolisSampler)
			So(ok, ShouldBeTrue)

			Convey("Then every option is applied", func() {
				So(s.initialStep, ShouldEqual, 0.3)
				So(s.initRadius, ShouldEqual, 0.5)
				So(s.adaptWindow, ShouldEqual, 20)
			})
		})

		Convey("When non-positive tuning is passed", func() {
			s := NewMetropolisSampler(WithInitialStep(0), WithInitRadius(-1), WithAdaptWindow(0))

			Convey("Then the defaults are kept", func() {
				So(s.initialStep, ShouldEqual, DefaultInitialStep)
				So(s.initRadius, ShouldEqual, DefaultInitRadius)
				So(s.adaptWindow, ShouldEqual, DefaultAdaptWindow)
			})
		})

		Convey("When chains start inside a narrow box", func() {
			seed := uint64(4)
			cfg := SamplerConfig{Iterations: 1, Warmup: 0, Chains: 2, Seed: &seed}
			model, err := NewModel([]int{1, 2}, 3)
			So(err, ShouldBeNil)
			run, err := NewMetropolisSampler(WithInitRadius(1e-9), WithInitialStep(1e-9)).Sample(context.Background(), model, cfg)

			Convey("Then the first draw sits at the centre of the simplex", func() {
				So(err, ShouldBeNil)
				for _, ch := range run.Chains {
					for _, p := range ch.Draws[0] {
						So(p, ShouldAlmostEqual, 1.0/3, 1e-6)
					}
				}
			})
		})
	})
}
