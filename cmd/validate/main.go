// Command validate checks a transaction export before it is uploaded: the
// required columns exist, rows parse, and the history covers every weekday
// and operating hour the planner will forecast.
//
// Usage:
//
//	go run ./cmd/validate -input data/mock/transactions.csv
//
// Column names, timezone and operating hours come from the same environment
// variables the service reads.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/carwash-ops/internal/adapter/csvfile"
	"github.com/couchcryptid/carwash-ops/internal/config"
	"github.com/couchcryptid/carwash-ops/internal/domain"
)

// maxListed caps the errors printed per phase.
const maxListed = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	input := flag.String("input", "", "transaction CSV to validate")
	minDays := flag.Int("min-days", 1, "minimum observed dates per weekday/hour cell")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*input, *minDays); code != 0 {
		os.Exit(code)
	}
}

func run(path string, minDays int) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: config: %v\n", err)
		return 1
	}

	fmt.Println("=== Transaction Export Validation ===")
	fmt.Println()

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	defer f.Close()

	table, err := csvfile.Read(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", path, err)
		return 1
	}

	structure := &phase{name: "Required columns present"}
	res, err := domain.Normalize(table, cfg.Columns, cfg.Location)
	if err != nil {
		if !errors.Is(err, domain.ErrMissingColumn) {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
		structure.errorf("%v", err)
	}

	phases := []*phase{
		structure,
		validateRows(res, "row", "Rows have enough fields"),
		validateRows(res, "timestamp", "Timestamps parse in "+cfg.Location.String()),
		validateRows(res, "amount", "Amounts are numeric"),
		validateCoverage(domain.BuildBaseline(res.Transactions), cfg.Hours, minDays),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d read, %d accepted, %d rejected\n", res.Rows(), len(res.Transactions), len(res.Rejected))
	if len(res.Transactions) > 0 {
		first, last := span(res.Transactions)
		fmt.Printf("Dates: %s to %s\n", first.Format(time.DateOnly), last.Format(time.DateOnly))
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors[:min(len(p.errors), maxListed)] {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if len(p.errors) > maxListed {
			fmt.Printf("  ... and %d more\n", len(p.errors)-maxListed)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateRows(res domain.NormalizeResult, field, name string) *phase {
	p := &phase{name: name}
	for _, rej := range res.Rejected {
		if rej.Field == field {
			p.errorf("line %d: %q: %s", rej.Line, rej.Value, rej.Reason)
		}
	}
	return p
}

// validateCoverage flags operating-hour cells with too little history. Those
// hours fall back to the overall average when forecast.
func validateCoverage(profile domain.BaselineProfile, hours domain.OperatingHours, minDays int) *phase {
	p := &phase{name: "History covers operating hours"}
	for d := time.Sunday; d <= time.Saturday; d++ {
		for h := hours.Open; h < hours.Close; h++ {
			cell, ok := profile.Cell(domain.CellKey{Weekday: d, Hour: h})
			switch {
			case !ok:
				p.errorf("%s %02d:00: no transactions", d, h)
			case cell.Observations < minDays:
				p.errorf("%s %02d:00: only %d dates observed", d, h, cell.Observations)
			}
		}
	}
	return p
}

func span(txs []domain.Transaction) (first, last time.Time) {
	first, last = txs[0].Timestamp, txs[0].Timestamp
	for _, tx := range txs[1:] {
		if tx.Timestamp.Before(first) {
			first = tx.Timestamp
		}
		if tx.Timestamp.After(last) {
			last = tx.Timestamp
		}
	}
	return first, last
}
