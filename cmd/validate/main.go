// Command validate runs a saved MET Norway locationforecast document through
// the timeline transformation and checks the derived series against the
// invariants the renderer relies on: ordering, bounds, rate sanity, and
// classification values. It exits non-zero when any check fails.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -doc data/mock/locationforecast_compact.json \
//	  -hours 24 \
//	  -now 2025-03-14T12:00:00Z
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/AndersM123/MagicMirror/internal/forecast"
)

// phase tracks pass/fail for one group of checks.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	docPath := flag.String("doc", "", "path to a locationforecast compact JSON document")
	hours := flag.Int("hours", 24, "forecast horizon in hours")
	nowStr := flag.String("now", "", "reference time, RFC3339 (default: now)")
	flag.Parse()

	if *docPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	now := time.Now()
	if *nowStr != "" {
		parsed, err := time.Parse(time.RFC3339, *nowStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: parse -now: %v\n", err)
			os.Exit(1)
		}
		now = parsed
	}

	os.Exit(run(*docPath, *hours, now))
}

func run(docPath string, hours int, now time.Time) int {
	data, err := os.ReadFile(docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read document: %v\n", err)
		return 1
	}

	var doc forecast.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode document: %v\n", err)
		return 1
	}

	fmt.Println("=== Timeline Series Validation ===")
	fmt.Printf("Document: %s (%d slots)\n", docPath, len(doc.Slots()))
	fmt.Printf("Horizon: %dh from %s\n\n", hours, now.Format(time.RFC3339))

	series := forecast.BuildSeries(doc, hours, now)

	phases := []*phase{
		validateOrdering(series, now, hours),
		validateRates(series),
		validateClassification(series),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
	}

	printSeries(series)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateOrdering checks that the series is future-only, strictly increasing
// on the hour, and never longer than the horizon.
func validateOrdering(series []forecast.Point, now time.Time, hours int) *phase {
	p := &phase{name: "Phase 1: Ordering"}

	if len(series) > hours {
		p.errorf("series has %d points, horizon is %d", len(series), hours)
	}

	for i, pt := range series {
		if pt.Time.Before(now) {
			p.errorf("point %d: %s is before the reference time", i, pt.Time.Format(time.RFC3339))
		}
		if i == 0 {
			continue
		}
		if !series[i-1].Time.Before(pt.Time) {
			p.errorf("point %d: %s does not increase past %s",
				i, pt.Time.Format(time.RFC3339), series[i-1].Time.Format(time.RFC3339))
		}
	}
	return p
}

// validateRates checks that rates are finite and non-negative and that
// probabilities, when present, sit in [0, 100].
func validateRates(series []forecast.Point) *phase {
	p := &phase{name: "Phase 2: Rates"}

	for i, pt := range series {
		if math.IsNaN(pt.Rate) || math.IsInf(pt.Rate, 0) {
			p.errorf("point %d: rate is not finite", i)
		}
		if pt.Rate < 0 {
			p.errorf("point %d: negative rate %g", i, pt.Rate)
		}
		if pt.Probability != nil && (*pt.Probability < 0 || *pt.Probability > 100) {
			p.errorf("point %d: probability %g out of range", i, *pt.Probability)
		}
	}
	return p
}

// validateClassification checks that every point carries a known type value.
func validateClassification(series []forecast.Point) *phase {
	p := &phase{name: "Phase 3: Classification"}

	valid := map[forecast.PrecipType]bool{
		forecast.TypeRain:    true,
		forecast.TypeSnow:    true,
		forecast.TypeMix:     true,
		forecast.TypeUnknown: true,
	}
	for i, pt := range series {
		if !valid[pt.Type] {
			p.errorf("point %d: unknown type %q", i, pt.Type)
		}
	}
	return p
}

func printSeries(series []forecast.Point) {
	fmt.Printf("\nDerived series (%d points):\n", len(series))
	for _, pt := range series {
		prob := "  - "
		if pt.Probability != nil {
			prob = fmt.Sprintf("%3.0f%%", *pt.Probability)
		}
		kind := string(pt.Type)
		if kind == "" {
			kind = "-"
		}
		fmt.Printf("  %s  %5.2f mm/h  %s  %s\n", pt.Time.Format("15:04"), pt.Rate, prob, kind)
	}
}
