package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
	"github.com/A-Here-And-Now/perp-trader/trading_core/wallet"
)

// sessionHandler reports the restored session so the UI can show the
// connect state after a reload.
func (t *Terminal) sessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := t.sessions.Restore(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sess)
}

// connectWalletHandler asks the signing capability for an address and
// persists the session. A missing provider gets its own status so the UI
// can guide the user to install one instead of showing a generic error.
func (t *Terminal) connectWalletHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	address, err := t.wallet.Connect(r.Context())
	if err != nil {
		if errors.Is(err, wallet.ErrWalletUnavailable) {
			http.Error(w, "no wallet provider configured - set wallet.rpc_url and WALLET_PRIVATE_KEY", http.StatusPreconditionFailed)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	sess := models.Session{IsConnected: true, Address: address}
	if err := t.sessions.Persist(r.Context(), sess); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	t.watchAccountChannel(address)
	if err := t.refresher.RefreshNow(r.Context()); err != nil {
		LoggerFrom(r).Printf("initial account refresh failed: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sess)
}

// disconnectWalletHandler clears the session and resets account state.
func (t *Terminal) disconnectWalletHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	if err := t.sessions.Persist(r.Context(), models.Session{}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	t.accounts.Reset()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(models.Session{})
}
