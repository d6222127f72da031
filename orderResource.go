package main

import (
	"encoding/json"
	"net/http"

	"github.com/A-Here-And-Now/perp-trader/trading_core/enum"
	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
)

type orderRequest struct {
	InstrumentName string  `json:"instrument_name"`
	Side           string  `json:"side"`
	Class          string  `json:"class"`
	Size           float64 `json:"size"`
	Leverage       float64 `json:"leverage"`
	LimitPrice     float64 `json:"limit_price,omitempty"`
}

type orderResponse struct {
	IntentID string `json:"intent_id"`
	State    string `json:"state"`
	Reason   string `json:"reason,omitempty"`
	TxHash   string `json:"tx_hash,omitempty"`
	Message  string `json:"message,omitempty"`
}

// orderHandler runs one submission intent to its terminal resolution. A
// failed submission is a valid outcome, not an HTTP error - the UI renders
// the reason; only malformed input gets a 4xx.
func (t *Terminal) orderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed order request: "+err.Error(), http.StatusBadRequest)
		return
	}
	side, err := enum.GetSide(req.Side)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	class, err := enum.GetOrderClass(req.Class)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Size <= 0 || req.Leverage <= 0 {
		http.Error(w, "size and leverage must be positive", http.StatusBadRequest)
		return
	}
	if class == enum.Limit && req.LimitPrice <= 0 {
		http.Error(w, "limit orders require a limit_price", http.StatusBadRequest)
		return
	}

	intent := models.NewSubmissionIntent(req.InstrumentName, side, class, req.Size, req.Leverage, req.LimitPrice)
	log := LoggerFrom(r)
	log.Printf("order intent %s: %s %s %s size=%.2f lev=%.1f", intent.ID, req.Side, req.Class, req.InstrumentName, req.Size, req.Leverage)

	result := t.orch.Submit(r.Context(), intent)

	resp := orderResponse{
		IntentID: intent.ID.String(),
		State:    result.State.String(),
		TxHash:   result.Receipt.TxHash,
	}
	if !result.Success() {
		resp.Reason = result.Reason.String()
		if result.Err != nil {
			resp.Message = result.Err.Error()
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
