// Command fetch resolves prices for a list of symbols once and prints
// them, one JSON object per line. Useful for cron jobs that warm the
// cache and for poking at providers without running the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"wealthtracker/internal/app"
	"wealthtracker/internal/asset"
	"wealthtracker/internal/config"
	"wealthtracker/internal/logger"
	"wealthtracker/internal/pricing"
)

func main() {
	var assetTypeFlag string
	var symbolsCSV string
	var currency string
	var refresh bool
	var timeout int
	var concurrency int

	flag.StringVar(&assetTypeFlag, "type", getenv("ASSET_TYPE", "crypto"), "asset type (crypto|stock|fund|commodity|exchange_rate)")
	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "BTC"), "comma-separated symbols")
	flag.StringVar(&currency, "currency", getenv("CURRENCY", "THB"), "target currency")
	flag.BoolVar(&refresh, "refresh", false, "bypass cached prices and fetch live")
	flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 30), "overall timeout seconds")
	flag.IntVar(&concurrency, "concurrency", 4, "max symbols resolved in parallel")
	flag.Parse()

	log := logger.New(slog.LevelWarn)

	t, err := asset.ParseType(assetTypeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	symbols := splitCSV(symbolsCSV)
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "no symbols given")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	st, closeStore, err := app.OpenStore(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "store:", err)
		os.Exit(1)
	}
	defer closeStore()

	orch := app.BuildOrchestrator(cfg, st, log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	results := make([]pricing.Response, len(symbols))
	errs := make([]error, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			q := pricing.Query{Type: t, Symbol: sym, Currency: currency, ForceRefresh: refresh}
			results[i], errs[i] = orch.GetPrice(gctx, q)
			// Per-symbol failures are reported individually, not fatal.
			return nil
		})
	}
	_ = g.Wait()
	orch.Wait()

	enc := json.NewEncoder(os.Stdout)
	failed := 0
	for i, sym := range symbols {
		if errs[i] != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", sym, errs[i])
			continue
		}
		_ = enc.Encode(results[i])
	}
	if failed == len(symbols) {
		os.Exit(1)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}
