package normalize_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMinMax(t *testing.T) {
	Convey("Given a column with spread", t, func() {
		col := []float64{10, 20, 30, 50}

		Convey("When normalizing", func() {
			out := normalize.MinMax(col)

			Convey("Then min maps to 0 and max maps to 1", func() {
				So(out, ShouldHaveLength, 4)
				So(out[0], ShouldEqual, 0.0)
				So(out[3], ShouldEqual, 1.0)
				So(out[1], ShouldAlmostEqual, 0.25, 1e-12)
				So(out[2], ShouldAlmostEqual, 0.5, 1e-12)
			})

			Convey("And the input is left untouched", func() {
				So(col, ShouldResemble, []float64{10, 20, 30, 50})
			})
		})
	})

	Convey("Given columns with no spread", t, func() {
		cases := map[string][]float64{
			"all zeros":    {0, 0, 0},
			"single value": {17},
			"all equal":    {4, 4, 4, 4},
		}
		for name, col := range cases {
			Convey("When normalizing "+name, func() {
				out := normalize.MinMax(col)

				Convey("Then every output is exactly 0", func() {
					So(out, ShouldHaveLength, len(col))
					for _, v := range out {
						So(math.IsNaN(v), ShouldBeFalse)
						So(v, ShouldEqual, 0.0)
					}
				})
			})
		}
	})

	Convey("Given an empty column", t, func() {
		Convey("Then the output is empty and non-nil", func() {
			out := normalize.MinMax(nil)
			So(out, ShouldNotBeNil)
			So(out, ShouldHaveLength, 0)
		})
	})

	Convey("Given random non-negative columns", t, func() {
		rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic seed for reproducible testing
		Convey("Then every output lies in [0,1]", func() {
			for i := 0; i < 200; i++ {
				col := make([]float64, 1+rng.Intn(40))
				for j := range col {
					col[j] = math.Floor(rng.Float64() * 1000)
				}
				for _, v := range normalize.MinMax(col) {
					So(v, ShouldBeGreaterThanOrEqualTo, 0.0)
					So(v, ShouldBeLessThanOrEqualTo, 1.0)
				}
			}
		})
	})
}
