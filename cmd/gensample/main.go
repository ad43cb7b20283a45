// Command gensample generates a mock MET Norway locationforecast "compact"
// document and the series the timeline derives from it. It uses the actual
// forecast package so the expected-series fixture matches real normalization
// behavior, with a fixed clock for reproducible output.
//
// Usage:
//
//	go run ./cmd/gensample \
//	  -doc-out data/mock/locationforecast_compact.json \
//	  -series-out data/mock/expected_series.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/AndersM123/MagicMirror/internal/forecast"
)

// baseTime anchors the mock timeseries. All slot timestamps and the fixed
// clock derive from it so regenerating the fixtures is deterministic.
var baseTime = time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	docOut := flag.String("doc-out", "", "output path for the mock locationforecast document")
	seriesOut := flag.String("series-out", "", "output path for the expected derived series")
	hours := flag.Int("hours", 24, "forecast horizon in hours")
	flag.Parse()

	if *docOut == "" || *seriesOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -doc-out, -series-out")
	}

	doc := buildDocument(*hours)

	clock := clockwork.NewFakeClockAt(baseTime)
	series := forecast.BuildSeries(doc, *hours, clock.Now())

	if err := writeJSON(*docOut, doc); err != nil {
		return fmt.Errorf("writing document fixture: %w", err)
	}
	log.Printf("wrote document fixture: %s (%d slots)", *docOut, len(doc.Slots()))

	if err := writeJSON(*seriesOut, series); err != nil {
		return fmt.Errorf("writing series fixture: %w", err)
	}
	log.Printf("wrote series fixture: %s (%d points)", *seriesOut, len(series))

	printStats(series)
	return nil
}

// buildDocument constructs a timeseries that exercises every normalization
// path: hourly slots with one-hour windows, a stretch covered only by
// six-hour windows, a twelve-hour tail, dry slots, and snow and sleet
// classification via both symbol and temperature.
func buildDocument(hours int) forecast.Document {
	var doc forecast.Document

	for i := 0; i < hours; i++ {
		slot := forecast.TimeSlot{Time: baseTime.Add(time.Duration(i) * time.Hour)}

		switch {
		case i < 6:
			// Rain ramp with explicit one-hour windows.
			temp := 4.0
			slot.Data.Instant.Details.AirTemperature = &temp
			slot.Data.Next1Hours = window("rain", fp(0.3*float64(i)), fp(80))
		case i < 9:
			// Dry gap: a one-hour window with zero precipitation.
			temp := 2.0
			slot.Data.Instant.Details.AirTemperature = &temp
			slot.Data.Next1Hours = window("cloudy", fp(0), nil)
		case i < 13:
			// Snow block, classified by symbol despite a positive reading.
			temp := 0.5
			slot.Data.Instant.Details.AirTemperature = &temp
			slot.Data.Next1Hours = window("snowshowers", fp(0.6), fp(65))
		case i < 14:
			// Sub-zero slot with a bare symbol, classified by temperature.
			temp := -2.0
			slot.Data.Instant.Details.AirTemperature = &temp
			slot.Data.Next1Hours = window("lightprecipitation", fp(0.4), fp(55))
		case i < 20:
			// Six-hour aggregate only; the hourly rate is the window average.
			temp := 3.0
			slot.Data.Instant.Details.AirTemperature = &temp
			slot.Data.Next6Hours = window("rain", fp(4.8), fp(70))
		default:
			// Twelve-hour tail with no finer window available.
			slot.Data.Next12Hours = window("sleet", fp(6.0), nil)
		}

		doc.Properties.Timeseries = append(doc.Properties.Timeseries, slot)
	}
	return doc
}

func window(symbol string, amount, probability *float64) *forecast.Window {
	w := &forecast.Window{}
	w.Summary.SymbolCode = symbol
	w.Details.PrecipitationAmount = amount
	w.Details.ProbabilityOfPrecipitation = probability
	return w
}

func fp(v float64) *float64 { return &v }

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(series []forecast.Point) {
	var wet int
	typeCounts := map[forecast.PrecipType]int{}
	var maxRate float64
	for _, p := range series {
		if p.Rate > 0 {
			wet++
			typeCounts[p.Type]++
		}
		if p.Rate > maxRate {
			maxRate = p.Rate
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Points: %d\n", len(series))
	fmt.Printf("Wet points: %d\n", wet)
	fmt.Printf("By type: rain=%d, snow=%d, mix=%d\n",
		typeCounts[forecast.TypeRain], typeCounts[forecast.TypeSnow], typeCounts[forecast.TypeMix])
	fmt.Printf("Max rate: %g mm/h\n", maxRate)
	if len(series) > 0 {
		fmt.Printf("First point: %s\n", series[0].Time.Format(time.RFC3339))
		fmt.Printf("Last point: %s\n", series[len(series)-1].Time.Format(time.RFC3339))
	}
}
