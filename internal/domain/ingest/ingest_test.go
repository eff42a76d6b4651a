package ingest_test

import (
	"errors"
	"testing"
	"time"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/features"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/ingest"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fullRow() ingest.Row {
	return ingest.Row{
		ingest.ColName:            "Ada Lovelace",
		ingest.ColEmail:           "ada@example.com",
		ingest.ColCompany:         "Acme",
		ingest.ColOrgUnit:         "R&D",
		ingest.ColPeriodEnd:       "2025-06-22",
		ingest.ColMessages:        "120",
		ingest.ColGPTMessages:     "7",
		ingest.ColProjectsCreated: "2",
		ingest.ColModelUsage:      "{'gpt-4o': 100, 'o3': 20}",
		ingest.ColToolUsage:       "{'canvas': 3}",
	}
}

func kinds(ws []ingest.Warning) []ingest.Kind {
	out := make([]ingest.Kind, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Kind)
	}
	return out
}

func TestParse(t *testing.T) {
	Convey("Given the default parser", t, func() {
		p := ingest.New()

		Convey("A complete row parses without warnings", func() {
			rec, warns, err := p.Parse(fullRow())
			So(err, ShouldBeNil)
			So(warns, ShouldBeEmpty)
			So(rec.Name, ShouldEqual, "Ada Lovelace")
			So(rec.OrgUnit, ShouldEqual, "R&D")
			So(rec.PeriodEnd, ShouldEqual, time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC))
			So(rec.Messages, ShouldEqual, 120)
			So(rec.GPTMessages, ShouldEqual, 7)
			So(rec.ProjectsCreated, ShouldEqual, 2)
			So(rec.ModelUsage, ShouldResemble, model.Usage{"gpt-4o": 100, "o3": 20})
			So(rec.ToolUsage, ShouldResemble, model.Usage{"canvas": 3})
		})

		Convey("Missing identity fields fall back to sentinels", func() {
			row := fullRow()
			delete(row, ingest.ColName)
			row[ingest.ColEmail] = "  "
			delete(row, ingest.ColCompany)
			delete(row, ingest.ColOrgUnit)

			rec, warns, err := p.Parse(row)
			So(err, ShouldBeNil)
			So(rec.Name, ShouldEqual, model.UnknownName)
			So(rec.Email, ShouldEqual, model.UnknownEmail)
			So(rec.Company, ShouldEqual, model.UnknownCompany)
			So(rec.OrgUnit, ShouldEqual, model.UnknownOrgUnit)
			So(kinds(warns), ShouldResemble, []ingest.Kind{ingest.KindMissing, ingest.KindMissing, ingest.KindMissing})
		})

		Convey("Unparseable and negative counters become 0 with warnings", func() {
			row := fullRow()
			row[ingest.ColMessages] = "lots"
			row[ingest.ColGPTMessages] = "-4"
			row[ingest.ColProjectsCreated] = "NaN"

			rec, warns, err := p.Parse(row)
			So(err, ShouldBeNil)
			So(rec.Messages, ShouldEqual, 0)
			So(rec.GPTMessages, ShouldEqual, 0)
			So(rec.ProjectsCreated, ShouldEqual, 0)
			So(kinds(warns), ShouldResemble, []ingest.Kind{ingest.KindNumeric, ingest.KindNegative, ingest.KindNumeric})
		})

		Convey("Blank counters and absent usage columns default silently", func() {
			row := fullRow()
			row[ingest.ColMessages] = ""
			delete(row, ingest.ColToolUsage)

			rec, warns, err := p.Parse(row)
			So(err, ShouldBeNil)
			So(warns, ShouldBeEmpty)
			So(rec.Messages, ShouldEqual, 0)
			So(rec.ToolUsage, ShouldNotBeNil)
			So(rec.ToolUsage, ShouldBeEmpty)
		})

		Convey("A malformed usage map is empty and reported", func() {
			row := fullRow()
			row[ingest.ColModelUsage] = "not a map"

			rec, warns, err := p.Parse(row)
			So(err, ShouldBeNil)
			So(rec.ModelUsage, ShouldBeEmpty)
			So(warns, ShouldHaveLength, 1)
			So(warns[0].Kind, ShouldEqual, ingest.KindUsage)
			So(warns[0].Field, ShouldEqual, ingest.ColModelUsage)
		})

		Convey("A missing or garbage period_end is an error", func() {
			row := fullRow()
			delete(row, ingest.ColPeriodEnd)
			_, _, err := p.Parse(row)
			So(errors.Is(err, ingest.ErrInvalidPeriod), ShouldBeTrue)

			row[ingest.ColPeriodEnd] = "last tuesday"
			_, _, err = p.Parse(row)
			So(errors.Is(err, ingest.ErrInvalidPeriod), ShouldBeTrue)
		})
	})

	Convey("Given a parser in repair mode", t, func() {
		p := ingest.New(ingest.WithUsageParser(features.NewParser(features.WithMode(features.ModeRepair))))

		Convey("A truncated usage map is recovered", func() {
			row := fullRow()
			row[ingest.ColModelUsage] = `{"gpt-4o": 5, "o3": 2`
			rec, warns, err := p.Parse(row)
			So(err, ShouldBeNil)
			So(warns, ShouldBeEmpty)
			So(len(rec.ModelUsage), ShouldEqual, 2)
		})
	})
}

func TestParsePeriod(t *testing.T) {
	Convey("Given the supported timestamp layouts", t, func() {
		want := time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC)
		for _, s := range []string{"2025-06-22", "2025-06-22 00:00:00", "2025-06-22T00:00:00Z", "06/22/2025"} {
			got, err := ingest.ParsePeriod(s)
			So(err, ShouldBeNil)
			So(got.Equal(want), ShouldBeTrue)
		}
	})

	Convey("Given timestamps carrying a zone offset", t, func() {
		for _, s := range []string{"2025-06-22T02:00:00+02:00", "2025-06-22 02:00:00+02:00"} {
			got, err := ingest.ParsePeriod(s)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC))
			So(got.Location(), ShouldEqual, time.UTC)
		}
	})
}
