// Command genmock writes a synthetic best-track CSV for exercising the
// processing pipeline at volume. Tracks are seeded random walks with realistic
// 6-hourly motion and intensity, sprinkled with the defects real archives
// carry: legacy missing markers, negative wind codes, blank radii and an
// occasional basin jump inside a single serial number. It runs the engine over
// the generated file and prints the counts tests assert on.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/synthetic.csv \
//	  -tracks 200 -seed 7 -start-season 1981
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/couchcryptid/storm-track-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/storm-track-etl/internal/domain"
	"github.com/couchcryptid/storm-track-etl/internal/units"
)

// columns matches data/mock/ibtracs_sample.yaml.
var columns = []string{
	domain.ColSerial, domain.ColSeason, domain.ColNumber, domain.ColDate,
	domain.ColLat, domain.ColLon, domain.ColMaxWind, domain.ColPressure, domain.ColRMax,
}

// genParams controls the generator; defects are per-fix probabilities.
type genParams struct {
	tracks       int
	seed         uint64
	startSeason  int
	seasons      int
	missingRate  float64
	basinJumpOdd float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the synthetic CSV")
	tracks := flag.Int("tracks", 100, "number of tracks to generate")
	seed := flag.Uint64("seed", 1, "random seed")
	startSeason := flag.Int("start-season", 1981, "first season")
	seasons := flag.Int("seasons", 30, "number of seasons to spread tracks over")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	p := genParams{
		tracks:       *tracks,
		seed:         *seed,
		startSeason:  *startSeason,
		seasons:      max(*seasons, 1),
		missingRate:  0.02,
		basinJumpOdd: 0.05,
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	rows, err := generate(f, p)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Printf("wrote %d observations for %d serials: %s", rows, p.tracks, *out)

	return printStats(*out)
}

// generate writes a header, a units row and one row per fix. It returns the
// number of fixes written.
func generate(w io.Writer, p genParams) (int, error) {
	rng := rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15))
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Serial_Num", "Season", "Num", "ISO_time", "Latitude", "Longitude", "Wind(WMO)", "Pres(WMO)", "RMW"}); err != nil {
		return 0, err
	}
	if err := cw.Write([]string{"", "Year", "#", "", "deg_north", "deg_east", "kt", "mb", "nmile"}); err != nil {
		return 0, err
	}

	rows := 0
	perSeason := make(map[int]int)
	for t := 0; t < p.tracks; t++ {
		season := p.startSeason + t*p.seasons/max(p.tracks, 1)
		perSeason[season]++
		num := perSeason[season]
		serial := fmt.Sprintf("%dS%03d", season, num)

		for _, fix := range walkTrack(rng, season, p) {
			rec := []string{
				serial,
				strconv.Itoa(season),
				strconv.Itoa(num),
				strftime.Format(domain.DefaultDateFormat, fix.when),
				strconv.FormatFloat(fix.lat, 'f', 1, 64),
				strconv.FormatFloat(fix.lon, 'f', 1, 64),
				fix.wind,
				fix.pressure,
				fix.rmax,
			}
			if err := cw.Write(rec); err != nil {
				return rows, err
			}
			rows++
		}
	}
	cw.Flush()
	return rows, cw.Error()
}

type fix struct {
	when                 time.Time
	lat, lon             float64
	wind, pressure, rmax string
}

// walkTrack moves a storm poleward and westward from a random genesis point
// in the Australian region, deepening then filling.
func walkTrack(rng *rand.Rand, season int, p genParams) []fix {
	n := 4 + rng.IntN(20)
	when := time.Date(season, time.Month(1+rng.IntN(4)), 1+rng.IntN(28), 6*rng.IntN(4), 0, 0, 0, time.UTC)
	lat := -8 - 8*rng.Float64()
	lon := 95 + 70*rng.Float64()
	bearing := 200 + 40*rng.Float64()
	pressure := 1004 - 4*rng.Float64()
	peak := n / 2

	out := make([]fix, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			step := 1 + rng.Float64()
			bearing += 8 * rng.NormFloat64()
			lat += step * math.Cos(bearing*math.Pi/180)
			lon += step * math.Sin(bearing*math.Pi/180)
			if i < peak {
				pressure -= 3 + 3*rng.Float64()
			} else {
				pressure += 2 + 3*rng.Float64()
			}
			when = when.Add(6 * time.Hour)
		}
		if i == n/2 && rng.Float64() < p.basinJumpOdd {
			lon += 20
		}

		vmax := math.Max(25, 6.3*math.Sqrt(math.Max(1010-pressure, 0))*1.94)
		rmaxNM := math.Max(8, 40-0.4*(1010-pressure))

		f := fix{
			when:     when,
			lat:      lat,
			lon:      lon,
			wind:     strconv.FormatFloat(math.Round(vmax), 'f', 0, 64),
			pressure: strconv.FormatFloat(pressure, 'f', 0, 64),
			rmax:     strconv.FormatFloat(math.Round(rmaxNM), 'f', 0, 64),
		}
		switch r := rng.Float64(); {
		case r < p.missingRate:
			f.pressure = strconv.Itoa(domain.LegacyMissingValue)
		case r < 2*p.missingRate:
			f.wind = "-999"
		case r < 3*p.missingRate:
			f.rmax = ""
		}
		out = append(out, f)
	}
	return out
}

// printStats runs the engine over the generated file and reports the numbers
// tests assert on.
func printStats(path string) error {
	reader, err := csvfile.NewReader(path, csvfile.Options{Columns: columns, HeaderRows: 2})
	if err != nil {
		return err
	}
	ds, err := reader.Extract(context.Background())
	if err != nil {
		return err
	}
	ts, err := domain.Process(ds, domain.Options{
		SpeedUnit:    "kts",
		PressureUnit: domain.PressureUnit,
		LengthUnit:   "nm",
		DateFormat:   domain.DefaultDateFormat,
		Convert:      units.Convert,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Observations: %d\n", ds.Len())
	fmt.Printf("Strategy: %s\n", ts.Strategy)
	fmt.Printf("Tracks: %d (forced splits %d)\n", ts.Tracks(), ts.ForcedSplits)
	fmt.Printf("Missing pressure: %d\n", domain.CountMissing(ts.Pressure.All))
	fmt.Printf("Missing max wind: %d\n", domain.CountMissing(ts.MaxWind.All))
	fmt.Printf("Missing rmax: %d\n", domain.CountMissing(ts.RMax.All))
	if ts.Frequency != nil {
		fmt.Printf("Genesis frequency: mean=%.2f std=%.2f\n", ts.Frequency.Mean, ts.Frequency.StdDev)
	}
	return nil
}
