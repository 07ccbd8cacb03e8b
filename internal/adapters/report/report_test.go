package report_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/playoffs/internal/adapters/report"
	service "github.com/okian/playoffs/internal/app"
	"github.com/okian/playoffs/internal/domain/inference"
	"github.com/okian/playoffs/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fit(labels []int, m int, iterations, warmup, chains int) model.FitResult {
	seed := uint64(4)
	cfg := inference.SamplerConfig{Iterations: iterations, Warmup: warmup, Chains: chains, Seed: &seed}
	post, err := inference.NewEstimator().Estimate(context.Background(), labels, m, cfg)
	return model.FitResult{Posterior: post, Err: err}
}

func TestWriter(t *testing.T) {
	Convey("Given a report with every kind of result", t, func() {
		ok := fit([]int{2, 3, 2}, 3, 2_000, 500, 2)
		ok.Job.Group = model.Group{Rank: 1, Outcomes: 3, Labels: []int{2, 3, 2}}

		prior := fit(nil, 4, 2_000, 500, 2)
		prior.Job.Group = model.Group{Rank: 2, Outcomes: 4}

		diverged := fit([]int{1}, 4, 1, 0, 1)
		diverged.Job.Group = model.Group{Rank: 3, Outcomes: 4, Labels: []int{1}}

		failed := model.FitResult{
			Job: model.FitJob{Group: model.Group{Rank: 4, Outcomes: 2, Labels: []int{3}}},
			Err: errors.New("label 3 outside [1, 2]"),
		}

		r := &service.Report{
			RunID:      "run-42",
			Records:    9,
			YearCutoff: 2010,
			Sampler:    inference.SamplerConjugate,
			Duration:   1500 * time.Millisecond,
			Results:    []model.FitResult{ok, prior, diverged, failed},
		}

		Convey("When it is written", func() {
			var buf bytes.Buffer
			err := report.NewWriter(report.WithPrecision(2)).Write(&buf, r)
			out := buf.String()

			Convey("Then the header names the run", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Run run-42")
				So(out, ShouldContainSubstring, "9 records, seasons after 2010, conjugate sampler")
				So(out, ShouldContainSubstring, "2 of 4 groups fitted in 1.5s")
			})

			Convey("And fitted groups print a posterior table", func() {
				So(out, ShouldContainSubstring, "League position 1: N=3, m=3, counts [0 2 1]")
				So(out, ShouldContainSubstring, "2.5%")
				So(out, ShouldContainSubstring, "97.5%")
				So(out, ShouldContainSubstring, "n_eff")
				So(out, ShouldContainSubstring, "prob[3]")
				So(out, ShouldContainSubstring, "most likely final position 2")
				So(out, ShouldContainSubstring, "converged, max Rhat")
			})

			Convey("And special groups are flagged", func() {
				So(out, ShouldContainSubstring, "League position 2: N=0 (prior only), m=4")
				So(out, ShouldContainSubstring, "no observations, every final position has exact mean 0.25")
				So(strings.Count(out, "most likely final position"), ShouldEqual, 2)
				So(out, ShouldContainSubstring, "NOT CONVERGED")
				So(out, ShouldContainSubstring, "inf")
				So(out, ShouldContainSubstring, "fit failed: label 3 outside [1, 2]")
			})
		})
	})
}
