package repository_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/playoffs/internal/adapters/repository"
	"github.com/okian/playoffs/internal/domain/model"
	"github.com/okian/playoffs/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seasons.csv")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCSVStore(t *testing.T) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given a CSV store", t, func() {
		ctx := context.Background()

		Convey("When the file holds a valid season table", func() {
			path := writeFile(t, "Year,Team,League_Position,End_Position\n"+
				"2011,Chennai,1,2\n"+
				"2009,Delhi,1,1\n"+
				"2012,Kolkata,1,3\n"+
				"2012,Delhi,2,1\n")
			records, err := repository.NewCSVStore(path).Records(ctx)

			Convey("Then every row is loaded in file order", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 4)
				So(records[0], ShouldResemble, model.Record{Year: 2011, Team: "Chennai", LeaguePosition: 1, FinalPosition: 2})
				So(records[3].LeaguePosition, ShouldEqual, 2)
			})
		})

		Convey("When the header uses different names", func() {
			path := writeFile(t, "season, rank ,final\n2015,3,4\n")
			store := repository.NewCSVStore(path, repository.WithColumns(repository.Columns{
				Year:           "season",
				LeaguePosition: "rank",
				FinalPosition:  "final",
			}))
			records, err := store.Records(ctx)

			Convey("Then the configured columns are used and the team is optional", func() {
				So(err, ShouldBeNil)
				So(records, ShouldResemble, []model.Record{{Year: 2015, LeaguePosition: 3, FinalPosition: 4}})
			})
		})

		Convey("When the file does not exist", func() {
			_, err := repository.NewCSVStore(filepath.Join(t.TempDir(), "nope.csv")).Records(ctx)

			Convey("Then the open error is returned", func() {
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
			})
		})
	})
}

func TestReadCSV(t *testing.T) {
	Convey("Given raw CSV input", t, func() {
		ctx := context.Background()
		cols := repository.DefaultColumns()

		cases := []struct {
			name string
			body string
			want error
		}{
			{"an empty file", "", repository.ErrNoRecords},
			{"a header only", "Year,League_Position,End_Position\n", repository.ErrNoRecords},
			{"a missing column", "Year,League_Position\n2011,1\n", repository.ErrMissingColumn},
			{"a non-numeric year", "Year,League_Position,End_Position\nabc,1,2\n", repository.ErrMalformedRecord},
			{"a zero position", "Year,League_Position,End_Position\n2011,0,2\n", repository.ErrMalformedRecord},
			{"a short row", "Year,League_Position,End_Position\n2011,1\n", repository.ErrMalformedRecord},
			{"a repeated season slot", "Year,League_Position,End_Position\n2011,1,2\n2011,1,3\n", repository.ErrDuplicateRecord},
		}

		for _, tc := range cases {
			Convey("When reading "+tc.name, func() {
				records, err := repository.ReadCSV(ctx, strings.NewReader(tc.body), cols)

				Convey("Then the matching error is returned", func() {
					So(errors.Is(err, tc.want), ShouldBeTrue)
					So(records, ShouldBeNil)
				})
			})
		}

		Convey("When a malformed row is reported", func() {
			_, err := repository.ReadCSV(ctx, strings.NewReader("Year,League_Position,End_Position\n2011,1,2\n2012,x,2\n"), cols)

			Convey("Then the error names the line", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "line 3")
			})
		})

		Convey("When the context is canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := repository.ReadCSV(canceled, strings.NewReader("Year,League_Position,End_Position\n2011,1,2\n"), cols)

			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestWriteCSV(t *testing.T) {
	Convey("Given generated records", t, func() {
		records := []model.Record{
			{Year: 2020, Team: "A", LeaguePosition: 1, FinalPosition: 1},
			{Year: 2020, Team: "B", LeaguePosition: 2, FinalPosition: 3},
		}

		Convey("When they are written and read back", func() {
			var buf bytes.Buffer
			err := repository.WriteCSV(&buf, records, repository.DefaultColumns())
			So(err, ShouldBeNil)
			So(strings.SplitN(buf.String(), "\n", 2)[0], ShouldEqual, "Year,Team,League_Position,End_Position")

			back, err := repository.ReadCSV(context.Background(), &buf, repository.DefaultColumns())

			Convey("Then the records survive unchanged", func() {
				So(err, ShouldBeNil)
				So(back, ShouldResemble, records)
			})
		})
	})
}
