// Command probe performs a one-shot query against a Weather Mate 3000 and
// prints the decoded observations. Useful for commissioning a new station
// before pointing the ingest service at it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/tallgrasslabs/weathermate-ingest/internal/adapter/station"
	"github.com/tallgrasslabs/weathermate-ingest/internal/config"
	"github.com/tallgrasslabs/weathermate-ingest/internal/domain"
)

type args struct {
	Addr    string        `arg:"positional" help:"Station address as host or host:port. Falls back to STATION_ADDR when omitted."`
	Timeout time.Duration `arg:"-t" default:"5s" help:"Per-attempt dial and read timeout"`
	Retries int           `arg:"-r" default:"1" help:"Query attempts before giving up"`
	Raw     bool          `arg:"--raw" help:"Print the raw response block instead of decoded fields"`
}

func (args) Description() string {
	return "Query a Weather Mate 3000 once and print its current readings."
}

func main() {
	var a args
	arg.MustParse(&a)

	if a.Addr == "" {
		a.Addr = os.Getenv("STATION_ADDR")
	}
	if a.Addr == "" {
		fmt.Fprintln(os.Stderr, "no station address: pass one as an argument or set STATION_ADDR")
		os.Exit(2)
	}

	addr, err := config.NormalizeStationAddr(a.Addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad station address: %v\n", err)
		os.Exit(2)
	}

	cfg := &config.Config{
		StationAddr:    addr,
		StationTimeout: a.Timeout,
		StationRetries: a.Retries,
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client := station.NewClient(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(a.Retries)*a.Timeout+10*time.Second)
	defer cancel()

	block, err := client.FetchBlock(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(1)
	}

	if a.Raw {
		os.Stdout.Write(block)
		return
	}

	obs := domain.DefaultCatalog().Decode(block)
	if len(obs) == 0 {
		fmt.Fprintln(os.Stderr, "station answered but no fields could be decoded")
		os.Exit(1)
	}

	names := make([]string, 0, len(obs))
	for name := range obs {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%s (%d fields)\n", cfg.StationAddr, len(obs))
	for _, name := range names {
		fmt.Printf("  %-32s %g\n", name, obs[name])
	}
}
