package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/orchestrate"
	"wealthtracker/internal/pricing"
)

type priceAPI struct {
	orch    *orchestrate.Orchestrator
	timeout time.Duration
	log     *slog.Logger
}

type batchResponse struct {
	Results []pricing.Response `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GET /api/price?type=crypto&symbol=BTC&currency=THB&refresh=false
func (a *priceAPI) handlePrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.timeout)
	defer cancel()
	resp, err := a.orch.GetPrice(ctx, q)
	if err != nil {
		if errors.Is(err, pricing.ErrPriceUnavailable) || errors.Is(err, pricing.ErrNoProviders) {
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
			return
		}
		a.log.Error("price request failed", "symbol", q.Symbol, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/prices/batch?type=crypto&symbols=BTC,ETH&currency=THB
func (a *priceAPI) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	t, err := asset.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	symbols := splitCSV(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing symbols query param"})
		return
	}
	if len(symbols) > 200 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "too many symbols (max 200)"})
		return
	}
	currency := strings.ToUpper(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = "THB"
	}
	force := r.URL.Query().Get("refresh") == "true"

	queries := make([]pricing.Query, len(symbols))
	for i, s := range symbols {
		queries[i] = pricing.Query{Type: t, Symbol: s, Currency: currency, ForceRefresh: force}
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.timeout)
	defer cancel()
	writeJSON(w, http.StatusOK, batchResponse{Results: a.orch.GetMany(ctx, queries)})
}

func parseQuery(r *http.Request) (pricing.Query, error) {
	t, err := asset.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		return pricing.Query{}, err
	}
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		return pricing.Query{}, errors.New("missing symbol query param")
	}
	currency := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))
	if currency == "" {
		currency = "THB"
	}
	return pricing.Query{
		Type:         t,
		Symbol:       symbol,
		Currency:     currency,
		ForceRefresh: r.URL.Query().Get("refresh") == "true",
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
