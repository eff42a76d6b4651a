package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/brianfmorissette/chatgpt-champion/internal/app"
	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/repository"
	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/source"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/champion"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/scoring"
	"github.com/brianfmorissette/chatgpt-champion/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

type fakeSource struct {
	records []model.ActivityRecord
	err     error
	loads   int
}

func (f *fakeSource) Load(context.Context) ([]model.ActivityRecord, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeSource) String() string { return "fake" }

func week(i int) time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*i)
}

func rec(name string, w int, msgs float64, models model.Usage) model.ActivityRecord {
	return model.ActivityRecord{
		Identity:   model.Identity{Name: name, Email: name + "@example.com", Company: "Acme"},
		OrgUnit:    model.UnknownOrgUnit,
		PeriodEnd:  week(w),
		Messages:   msgs,
		ModelUsage: models,
		ToolUsage:  model.Usage{},
	}
}

func dataset() []model.ActivityRecord {
	return []model.ActivityRecord{
		rec("ada", 0, 100, model.Usage{"gpt-4o": 90, "o3": 10}),
		rec("ada", 1, 80, model.Usage{"gpt-4o": 80}),
		rec("bo", 0, 40, model.Usage{"gpt-4o": 40}),
		rec("bo", 1, 0, model.Usage{}),
		rec("cy", 1, 10, model.Usage{}),
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with custom options", t, func() {
		svc := service.New(service.WithCacheSize(4), service.WithLimits(50, 20))

		Convey("Then the default size is clamped to the maximum", func() {
			def, max := svc.Limits()
			So(def, ShouldEqual, 20)
			So(max, ShouldEqual, 20)
		})
	})
}

func TestService_Start(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a source", t, func() {
		src := &fakeSource{records: dataset()}
		svc := service.New(service.WithSource(src))
		defer svc.Stop()

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then the leaderboard is published", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["records"], ShouldEqual, 5)
				So(stats["champions"], ShouldEqual, 3)
				So(stats["runId"], ShouldNotBeEmpty)

				top, err := svc.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)
				So(top[0].Name, ShouldEqual, "ada")
				So(top[0].Rank, ShouldEqual, 1)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(src.loads, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a service with invalid weights", t, func() {
		w := scoring.DefaultWeights()
		w.Messages = 31
		svc := service.New(service.WithWeights(w))

		Convey("Then Start fails with a configuration error", func() {
			err := svc.Start(ctx)
			So(errors.Is(err, scoring.ErrInvalidWeights), ShouldBeTrue)
		})
	})

	Convey("Given a source that fails", t, func() {
		svc := service.New(service.WithSource(&fakeSource{err: errors.New("disk gone")}))

		Convey("Then Start reports it", func() {
			So(svc.Start(ctx), ShouldNotBeNil)
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		So(errors.Is(svc.Reload(ctx), service.ErrNotStarted), ShouldBeTrue)
		So(errors.Is(svc.SetWeights(ctx, scoring.DefaultWeights()), service.ErrNotStarted), ShouldBeTrue)
		_, err := svc.TopN(ctx, 5)
		So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)
	})
}

func TestService_Queries(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithSource(&fakeSource{records: dataset()}), service.WithLimits(10, 50))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Limits outside [1,max] are rejected", func() {
			_, err := svc.TopN(ctx, 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			_, err = svc.TopN(ctx, 51)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("Rank finds a user and reports unknown ones", func() {
			e, err := svc.Rank(ctx, "bo")
			So(err, ShouldBeNil)
			So(e.ActiveWeeks, ShouldEqual, 1)
			So(e.TotalMessages, ShouldEqual, 40)

			_, err = svc.Rank(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Trend includes zero-message weeks", func() {
			pts, err := svc.Trend(ctx, "bo")
			So(err, ShouldBeNil)
			So(pts, ShouldHaveLength, 2)
			So(pts[1].Messages, ShouldEqual, 0)
		})

		Convey("Records expose the processed dataset", func() {
			recs, err := svc.Records(ctx)
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 5)
			So(recs[0].ModelDiversity, ShouldEqual, 2)
			So(recs[0].Normalized.Messages, ShouldEqual, 1)
		})
	})
}

func TestService_Weights(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithSource(source.NewStatic(dataset())))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		before, _ := svc.TopN(ctx, 10)

		Convey("When setting invalid weights", func() {
			bad := scoring.Weights{Messages: 101}
			err := svc.SetWeights(ctx, bad)

			Convey("Then nothing changes", func() {
				So(errors.Is(err, scoring.ErrInvalidWeights), ShouldBeTrue)
				So(svc.Weights(), ShouldResemble, scoring.DefaultWeights())
				after, _ := svc.TopN(ctx, 10)
				So(after, ShouldResemble, before)
			})
		})

		Convey("When weighting only messages", func() {
			w := scoring.Weights{Messages: 100}
			So(svc.SetWeights(ctx, w), ShouldBeNil)

			Convey("Then the published scores follow", func() {
				So(svc.Weights(), ShouldResemble, w)
				top, err := svc.TopN(ctx, 1)
				So(err, ShouldBeNil)
				So(top[0].Name, ShouldEqual, "ada")
				So(top[0].AvgChampionScore, ShouldAlmostEqual, 90, 1e-9)
			})
		})

		Convey("When asking for an ad-hoc leaderboard", func() {
			w := scoring.Weights{Models: 100}
			top, err := svc.Leaderboard(ctx, 10, w)

			Convey("Then the active weights stay put", func() {
				So(err, ShouldBeNil)
				So(top[0].Name, ShouldEqual, "ada")
				So(svc.Weights(), ShouldResemble, scoring.DefaultWeights())
			})
		})
	})
}

func TestService_Memoization(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithSource(source.NewStatic(dataset())), service.WithCacheSize(8))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("A memoized analysis equals a fresh computation", func() {
			w := scoring.Weights{Messages: 50, Tools: 50}
			first, err := svc.Analyze(ctx, w)
			So(err, ShouldBeNil)
			second, err := svc.Analyze(ctx, w)
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)

			scored, err := scoring.Score(dataset(), w)
			So(err, ShouldBeNil)
			So(second.Scored, ShouldResemble, scored)
			So(second.Summaries, ShouldResemble, champion.Aggregate(scored))
			So(svc.GetStats()["cachedAnalyses"], ShouldEqual, 2)
		})

		Convey("Mutating a result does not corrupt the cache", func() {
			w := scoring.DefaultWeights()
			res, _ := svc.Analyze(ctx, w)
			res.Summaries[0].AvgChampionScore = -1
			again, _ := svc.Analyze(ctx, w)
			So(again.Summaries[0].AvgChampionScore, ShouldBeGreaterThan, 0)
		})
	})
}

func TestService_Reload(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		src := &fakeSource{records: dataset()}
		svc := service.New(service.WithSource(src))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the source gains a user", func() {
			src.records = append(dataset(), rec("dee", 1, 500, model.Usage{"o3": 1}))
			So(svc.Reload(ctx), ShouldBeNil)

			Convey("Then the new leaderboard includes them", func() {
				e, err := svc.Rank(ctx, "dee")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldBeGreaterThan, 0)
				So(svc.GetStats()["records"], ShouldEqual, 6)
			})
		})

		Convey("When the source starts failing", func() {
			src.err = errors.New("gone")
			err := svc.Reload(ctx)

			Convey("Then the previous leaderboard stays published", func() {
				So(err, ShouldNotBeNil)
				top, err := svc.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)
			})
		})
	})

	Convey("Given a service that published UTC periods", t, func() {
		svc := service.New(service.WithSource(source.NewStatic(dataset())))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the same instants are republished in another zone", func() {
			plus2 := time.FixedZone("CEST", 2*60*60)
			shifted := dataset()
			for i := range shifted {
				shifted[i].PeriodEnd = shifted[i].PeriodEnd.In(plus2)
			}
			So(svc.SetRecords(ctx, shifted), ShouldBeNil)

			Convey("Then the published records match a fresh computation", func() {
				recs, err := svc.Records(ctx)
				So(err, ShouldBeNil)
				scored, err := scoring.Score(shifted, svc.Weights())
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, len(scored))
				for i := range scored {
					So(recs[i].PeriodEnd, ShouldResemble, scored[i].PeriodEnd)
				}
				_, offset := recs[0].PeriodEnd.Zone()
				So(offset, ShouldEqual, 2*60*60)
			})
		})
	})

	Convey("Given a service without a source", t, func() {
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		So(errors.Is(svc.Reload(ctx), service.ErrNoSource), ShouldBeTrue)
		So(svc.SetRecords(ctx, dataset()), ShouldBeNil)
		So(svc.GetStats()["champions"], ShouldEqual, 3)
	})
}
