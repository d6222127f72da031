package main

import (
	"encoding/json"
	"net/http"
)

// accountHandler returns the account summary with derived margin figures
// computed on read.
func (t *Terminal) accountHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(t.accounts.Summary())
}

// depthHandler serves the latest aggregated depth table for one
// instrument, for UI catch-up before the socket stream kicks in.
func (t *Terminal) depthHandler(w http.ResponseWriter, r *http.Request) {
	instrument := r.URL.Query().Get("instrument")
	table, ok := t.market.Depth(instrument)
	if !ok {
		http.Error(w, "no depth for instrument", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(table)
}
