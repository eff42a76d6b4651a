package champion_test

import (
	"testing"
	"time"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/champion"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func week(n int) time.Time {
	return time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*n)
}

func scored(name string, w int, messages, score float64) model.ScoredRecord {
	return model.ScoredRecord{
		ActivityRecord: model.ActivityRecord{
			Identity:   model.Identity{Name: name, Email: name + "@example.com", Company: "Acme"},
			PeriodEnd:  week(w),
			Messages:   messages,
			ModelUsage: model.Usage{},
			ToolUsage:  model.Usage{},
		},
		ChampionScore: score,
	}
}

func TestAggregate(t *testing.T) {
	Convey("Given a user with three scored weeks", t, func() {
		in := []model.ScoredRecord{
			scored("ada", 0, 10, 80),
			scored("ada", 1, 20, 90),
			scored("ada", 2, 30, 70),
		}

		Convey("When aggregating", func() {
			out := champion.Aggregate(in)

			Convey("Then the summary carries mean, spread, totals and recency", func() {
				So(out, ShouldHaveLength, 1)
				s := out[0]
				So(s.AvgChampionScore, ShouldAlmostEqual, 80.0, 1e-9)
				So(s.ScoreStability, ShouldAlmostEqual, 10.0, 1e-9)
				So(s.TotalMessages, ShouldEqual, 60.0)
				So(s.ActiveWeeks, ShouldEqual, 3)
				So(s.LastActive, ShouldEqual, week(2))
				So(s.Rank, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a user with exactly one qualifying week", t, func() {
		in := []model.ScoredRecord{
			scored("bo", 0, 5, 42),
			scored("bo", 1, 0, 99),
		}

		Convey("Then stability is 0 and the inactive week is ignored", func() {
			out := champion.Aggregate(in)
			So(out, ShouldHaveLength, 1)
			So(out[0].ScoreStability, ShouldEqual, 0.0)
			So(out[0].AvgChampionScore, ShouldEqual, 42.0)
			So(out[0].ActiveWeeks, ShouldEqual, 1)
			So(out[0].LastActive, ShouldEqual, week(0))
		})
	})

	Convey("Given a user whose only records have zero messages", t, func() {
		in := []model.ScoredRecord{scored("cy", 0, 0, 10), scored("cy", 1, 0, 20)}

		Convey("Then the user does not appear at all", func() {
			So(champion.Aggregate(in), ShouldHaveLength, 0)
		})
	})

	Convey("Given users with tied averages", t, func() {
		in := []model.ScoredRecord{
			scored("dee", 0, 1, 50),
			scored("ada", 0, 1, 90),
			scored("bo", 0, 1, 70),
			scored("cy", 0, 1, 70),
			scored("eve", 0, 1, 10),
		}

		Convey("When aggregating", func() {
			out := champion.Aggregate(in)

			Convey("Then ties share a rank and the next score takes the next integer", func() {
				So(out, ShouldHaveLength, 5)
				ranks := map[string]int{}
				for _, s := range out {
					ranks[s.Name] = s.Rank
				}
				So(ranks["ada"], ShouldEqual, 1)
				So(ranks["bo"], ShouldEqual, 2)
				So(ranks["cy"], ShouldEqual, 2)
				So(ranks["dee"], ShouldEqual, 3)
				So(ranks["eve"], ShouldEqual, 4)
			})

			Convey("And the output is sorted by rank then name", func() {
				names := []string{}
				for _, s := range out {
					names = append(names, s.Name)
				}
				So(names, ShouldResemble, []string{"ada", "bo", "cy", "dee", "eve"})
			})
		})
	})

	Convey("Given two people sharing a name at different companies", t, func() {
		a := scored("sam", 0, 1, 60)
		b := scored("sam", 0, 1, 40)
		b.Company = "Globex"

		Convey("Then they are summarized separately", func() {
			out := champion.Aggregate([]model.ScoredRecord{a, b})
			So(out, ShouldHaveLength, 2)
			So(out[0].Company, ShouldEqual, "Acme")
			So(out[1].Company, ShouldEqual, "Globex")
		})
	})

	Convey("Given duplicate rows for the same week", t, func() {
		in := []model.ScoredRecord{scored("ada", 0, 1, 10), scored("ada", 0, 1, 30)}

		Convey("Then active weeks counts distinct periods only", func() {
			out := champion.Aggregate(in)
			So(out[0].ActiveWeeks, ShouldEqual, 1)
			So(out[0].AvgChampionScore, ShouldEqual, 20.0)
		})
	})

	Convey("Given no records", t, func() {
		out := champion.Aggregate(nil)
		So(out, ShouldNotBeNil)
		So(out, ShouldHaveLength, 0)
	})
}

func TestPipelineDeterminism(t *testing.T) {
	Convey("Given raw records and weights", t, func() {
		records := []model.ActivityRecord{}
		for i := 0; i < 12; i++ {
			records = append(records, model.ActivityRecord{
				Identity:        model.Identity{Name: []string{"ada", "bo", "cy"}[i%3], Email: "x", Company: "Acme"},
				PeriodEnd:       week(i / 3),
				Messages:        float64(i * 7 % 11),
				GPTMessages:     float64(i % 4),
				ProjectsCreated: float64(i % 2),
				ModelUsage:      model.Usage{"gpt-4o": 1},
				ToolUsage:       model.Usage{},
			})
		}
		w := scoring.DefaultWeights()

		Convey("When scoring and aggregating twice", func() {
			s1, err1 := scoring.Score(records, w)
			s2, err2 := scoring.Score(records, w)
			a1 := champion.Aggregate(s1)
			a2 := champion.Aggregate(s2)

			Convey("Then both runs are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(s2, ShouldResemble, s1)
				So(a2, ShouldResemble, a1)
			})
		})
	})
}

func TestViews(t *testing.T) {
	Convey("Given ranked summaries and scored records", t, func() {
		in := []model.ScoredRecord{
			scored("ada", 2, 10, 90),
			scored("ada", 0, 10, 70),
			scored("ada", 1, 0, 0),
			scored("bo", 0, 10, 50),
			scored("cy", 0, 10, 20),
		}
		summaries := champion.Aggregate(in)

		Convey("When taking the top two", func() {
			top := champion.Top(summaries, 2)
			So(top, ShouldHaveLength, 2)
			So(top[0].Name, ShouldEqual, "ada")
			So(top[1].Name, ShouldEqual, "bo")

			Convey("Then modifying the result leaves the source intact", func() {
				top[0].Rank = 99
				So(summaries[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When asking for more than available or none", func() {
			So(champion.Top(summaries, 100), ShouldHaveLength, 3)
			So(champion.Top(summaries, 0), ShouldHaveLength, 0)
		})

		Convey("When finding a user by name", func() {
			s, ok := champion.Find(summaries, "bo")
			So(ok, ShouldBeTrue)
			So(s.Rank, ShouldEqual, 2)
			_, ok = champion.Find(summaries, "nobody")
			So(ok, ShouldBeFalse)
		})

		Convey("When listing names", func() {
			So(champion.Names(summaries), ShouldResemble, []string{"ada", "bo", "cy"})
		})

		Convey("When building a trend", func() {
			trend := champion.Trend(in, "ada")

			Convey("Then every week is included in date order", func() {
				So(trend, ShouldHaveLength, 3)
				So(trend[0].PeriodEnd, ShouldEqual, week(0))
				So(trend[1].PeriodEnd, ShouldEqual, week(1))
				So(trend[1].ChampionScore, ShouldEqual, 0.0)
				So(trend[2].ChampionScore, ShouldEqual, 90.0)
			})

			Convey("And an unknown user has an empty trend", func() {
				So(champion.Trend(in, "nobody"), ShouldHaveLength, 0)
			})

			Convey("And the one-pass index agrees with the per-user view", func() {
				all := champion.Trends(in)
				So(all["ada"], ShouldResemble, trend)
				_, ok := all["nobody"]
				So(ok, ShouldBeFalse)
			})
		})
	})
}
