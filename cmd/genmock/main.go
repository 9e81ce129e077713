// Command genmock writes a deterministic car wash transaction export for
// demos and manual testing. The same seed always produces the same file.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/transactions.csv -days 56 -bad-rows 12
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/carwash-ops/internal/domain"
)

var header = []string{"orderId", "location", "licensePlate", "package", "employee", "type", "time", "total"}

type washPackage struct {
	name  string
	price float64
}

var packages = []washPackage{
	{"Basic", 10},
	{"Deluxe", 18},
	{"Ultimate", 26},
}

var employees = []string{"alex", "jordan", "sam", "riley", "casey"}

// hourShape is the relative traffic of each hour the site is open.
var hourShape = map[int]float64{
	7: 0.3, 8: 0.6, 9: 0.9, 10: 1.0, 11: 1.1, 12: 1.2, 13: 1.1,
	14: 1.0, 15: 1.0, 16: 1.2, 17: 1.3, 18: 0.9, 19: 0.5,
}

// dayShape scales hourShape by weekday, Sunday first.
var dayShape = [7]float64{1.3, 0.7, 0.7, 0.8, 0.9, 1.1, 1.6}

type options struct {
	out       string
	start     time.Time
	days      int
	baseRate  float64
	customers int
	bad       int
	seed      uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		opts  options
		start string
	)
	flag.StringVar(&opts.out, "out", "-", "output CSV path, or - for stdout")
	flag.StringVar(&start, "start", "2024-04-01", "first date YYYY-MM-DD")
	flag.IntVar(&opts.days, "days", 56, "number of days to generate")
	flag.Float64Var(&opts.baseRate, "rate", 6, "mean washes per hour at the busiest weekday hour")
	flag.IntVar(&opts.customers, "customers", 400, "size of the returning customer pool")
	flag.IntVar(&opts.bad, "bad-rows", 0, "number of rows with unparseable timestamps or amounts")
	flag.Uint64Var(&opts.seed, "seed", 42, "random seed")
	flag.Parse()

	d, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return fmt.Errorf("invalid -start %q: %w", start, err)
	}
	opts.start = d
	if opts.days <= 0 || opts.customers <= 0 || opts.baseRate <= 0 || opts.bad < 0 {
		return fmt.Errorf("-days, -customers and -rate must be positive and -bad-rows non-negative")
	}

	rows := generate(opts)
	if err := write(opts.out, rows); err != nil {
		return err
	}
	printStats(rows)
	return nil
}

func generate(opts options) [][]string {
	r := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))

	plates := make([]string, opts.customers)
	members := make(map[string]bool, opts.customers/5)
	for i := range plates {
		plates[i] = fmt.Sprintf("%c%c%c%04d", 'A'+r.IntN(26), 'A'+r.IntN(26), 'A'+r.IntN(26), r.IntN(10000))
		if r.Float64() < 0.2 {
			members[plates[i]] = true
		}
	}

	var rows [][]string
	orderID := 1000
	for day := range opts.days {
		date := opts.start.AddDate(0, 0, day)
		for hour := 7; hour < 20; hour++ {
			mean := opts.baseRate * hourShape[hour] * dayShape[date.Weekday()] / 1.6
			for range poisson(r, mean) {
				orderID++
				rows = append(rows, washRow(r, orderID, date, hour, plates, members))
			}
		}
	}

	for range opts.bad {
		if len(rows) == 0 {
			break
		}
		i := r.IntN(len(rows))
		if r.IntN(2) == 0 {
			rows[i][6] = "not a time"
		} else {
			rows[i][7] = "n/a"
		}
	}
	return rows
}

func washRow(r *rand.Rand, orderID int, date time.Time, hour int, plates []string, members map[string]bool) []string {
	// One visit in ten is a walk-up with no plate captured.
	plate := "UNKNOWN"
	if r.Float64() >= 0.1 {
		plate = plates[r.IntN(len(plates))]
	}
	kind := "Retail"
	price := packages[r.IntN(len(packages))]
	if members[plate] {
		kind = "Member"
	}
	ts := time.Date(date.Year(), date.Month(), date.Day(), hour, r.IntN(60), r.IntN(60), 0, time.UTC)
	return []string{
		strconv.Itoa(orderID),
		"Main St",
		plate,
		price.name,
		employees[r.IntN(len(employees))],
		kind,
		ts.Format(time.DateTime),
		"$" + strconv.FormatFloat(price.price, 'f', 2, 64),
	}
}

// poisson draws from a Poisson distribution with Knuth's method.
func poisson(r *rand.Rand, mean float64) int {
	limit := math.Exp(-mean)
	k, p := 0, 1.0
	for {
		p *= r.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

func write(path string, rows [][]string) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	if path != "-" {
		log.Printf("wrote %d rows to %s", len(rows), path)
	}
	return nil
}

// printStats runs the generated rows through normalization so the numbers
// match what the planner will see.
func printStats(rows [][]string) {
	table := domain.Table{Header: header}
	for i, row := range rows {
		table.Rows = append(table.Rows, domain.Row{Line: i + 2, Values: row})
	}
	res, err := domain.Normalize(table, domain.DefaultColumnMapping(), time.UTC)
	if err != nil {
		log.Printf("normalize: %v", err)
		return
	}
	usage := domain.SummarizeUsage(res.Transactions)
	customers := domain.SummarizeCustomers(domain.Classify(res.Transactions))
	profile := domain.BuildBaseline(res.Transactions)

	log.Printf("rows=%d accepted=%d rejected=%d", res.Rows(), len(res.Transactions), len(res.Rejected))
	log.Printf("revenue=%s average_ticket=%s", usage.TotalRevenue, usage.AverageTicket)
	log.Printf("unique_customers=%d member_visits=%d unknown_visits=%d",
		customers.UniqueCustomers, customers.MemberVisits, customers.UnknownVisits)
	log.Printf("baseline_cells=%d", profile.Len())
}
