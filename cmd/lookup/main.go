// Command lookup geocodes addresses, or autocompletes partial input, from the
// command line and prints one JSON result per line in input order.
//
//	lookup [-autocomplete] [-raw] [-language en] [-concurrency 4] address...
//
// With no address arguments, newline-separated inputs are read from stdin.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/couchcryptid/geocode-lookup-service/internal/adapter/googlemaps"
	"github.com/couchcryptid/geocode-lookup-service/internal/config"
	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
	"github.com/couchcryptid/geocode-lookup-service/internal/observability"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

type options struct {
	autocomplete bool
	raw          bool
	language     string
	sensor       *bool
	concurrency  int
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.BoolVar(&opts.autocomplete, "autocomplete", false, "run place autocomplete instead of geocoding")
	flag.BoolVar(&opts.raw, "raw", false, "print the decoded service payload instead of normalized results")
	flag.StringVar(&opts.language, "language", "", "result language (defaults to GOOGLE_LANGUAGE)")
	flag.Func("sensor", "sensor parameter (defaults to GOOGLE_SENSOR)", func(s string) error {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		opts.sensor = &b
		return nil
	})
	flag.IntVar(&opts.concurrency, "concurrency", 4, "maximum lookups in flight")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	logger := observability.NewLogger(cfg)

	inputs := flag.Args()
	if len(inputs) == 0 {
		if inputs, err = readInputs(os.Stdin); err != nil {
			fmt.Fprintln(os.Stderr, "read stdin:", err)
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := googlemaps.NewClient(
		googlemaps.NewHTTPTransport(cfg.GoogleTimeout),
		observability.NewMetrics(),
		logger,
	)
	r := runner{
		geocoder:         client,
		geocodeBase:      cfg.GeocodeDefaults(),
		autocompleteBase: cfg.AutocompleteDefaults(),
		logger:           logger,
	}

	failed, err := r.run(ctx, opts, inputs, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

type runner struct {
	geocoder         domain.Geocoder
	geocodeBase      domain.GeocodeQuery
	autocompleteBase domain.AutocompleteQuery
	logger           *slog.Logger
}

// run performs every lookup with at most opts.concurrency in flight and
// writes the results to w in input order. It returns how many failed.
func (r runner) run(ctx context.Context, opts options, inputs []string, w io.Writer) (int, error) {
	results := make([]domain.LookupResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.concurrency, 1))
	for i, input := range inputs {
		req := r.request(i, input, opts)
		g.Go(func() error {
			res, err := r.lookup(gctx, req)
			results[i] = domain.NewLookupResult(req, res, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	failed := 0
	for _, res := range results {
		if res.Status != domain.StatusOK {
			failed++
		}
		if err := enc.Encode(res); err != nil {
			return failed, fmt.Errorf("write result: %w", err)
		}
	}
	r.logger.Debug("lookups finished", "total", len(inputs), "failed", failed)
	return failed, nil
}

func (r runner) request(i int, input string, opts options) domain.LookupRequest {
	req := domain.LookupRequest{
		ID:       strconv.Itoa(i + 1),
		Kind:     domain.KindGeocode,
		Address:  input,
		Language: opts.language,
		Sensor:   opts.sensor,
		Raw:      opts.raw,
	}
	if opts.autocomplete {
		req.Kind = domain.KindAutocomplete
		req.Address = ""
		req.Input = input
	}
	return req
}

func (r runner) lookup(ctx context.Context, req domain.LookupRequest) (domain.Result, error) {
	if req.Kind == domain.KindAutocomplete {
		return r.geocoder.Autocomplete(ctx, req.AutocompleteQuery(r.autocompleteBase))
	}
	return r.geocoder.Geocode(ctx, req.GeocodeQuery(r.geocodeBase))
}

// readInputs returns the non-blank lines of rd.
func readInputs(rd io.Reader) ([]string, error) {
	var inputs []string
	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			inputs = append(inputs, line)
		}
	}
	return inputs, sc.Err()
}
