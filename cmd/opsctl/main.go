// Command opsctl builds a staffing and maintenance plan from a transaction
// export without running the HTTP service.
//
// Usage:
//
//	go run ./cmd/opsctl -input transactions.csv -date 2024-06-10 -format text
//
// Settings not given as flags come from the same environment variables the
// service reads.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/carwash-ops/internal/adapter/csvfile"
	"github.com/couchcryptid/carwash-ops/internal/adapter/openmeteo"
	"github.com/couchcryptid/carwash-ops/internal/config"
	"github.com/couchcryptid/carwash-ops/internal/domain"
	"github.com/couchcryptid/carwash-ops/internal/format"
	"github.com/couchcryptid/carwash-ops/internal/observability"
	"github.com/couchcryptid/carwash-ops/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	input := flag.String("input", "", "transaction CSV file, or - for stdin")
	date := flag.String("date", "", "target date YYYY-MM-DD (default tomorrow)")
	trafficIndex := flag.String("traffic", "", "traffic index between 0 and 1")
	trafficLevel := flag.Int("traffic-level", 0, "traffic level 1..5, alternative to -traffic")
	maintenance := flag.Int("maintenance-hours", 0, "maintenance window length in hours")
	outFormat := flag.String("format", "text", "output format: text, json or csv")
	offline := flag.Bool("offline", false, "skip the live weather forecast")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		return 2
	}

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	f, err := format.ParseFormat(*outFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	opts := pipeline.Options{TargetDate: *date, MaintenanceHours: *maintenance}
	if *trafficIndex != "" {
		v, err := strconv.ParseFloat(*trafficIndex, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -traffic %q\n", *trafficIndex)
			return 2
		}
		opts.TrafficIndex = &v
	}
	if *trafficLevel != 0 {
		opts.TrafficLevel = trafficLevel
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var weather domain.WeatherProvider
	if cfg.WeatherEnabled && !*offline {
		weather = openmeteo.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout, metrics, logger)
	}
	p := pipeline.New(pipeline.SettingsFromConfig(cfg), weather, nil, logger, metrics)

	table, err := readTable(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", *input, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := p.Process(ctx, table, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan: %v\n", err)
		return 1
	}

	if err := format.Render(os.Stdout, f, report); err != nil {
		fmt.Fprintf(os.Stderr, "write report: %v\n", err)
		return 1
	}
	return 0
}

func readTable(path string) (domain.Table, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return domain.Table{}, err
		}
		defer file.Close()
		r = file
	}
	return csvfile.Read(r)
}
