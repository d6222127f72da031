package main

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/A-Here-And-Now/perp-trader/trading_core/account"
	"github.com/A-Here-And-Now/perp-trader/trading_core/depth"
	"github.com/A-Here-And-Now/perp-trader/trading_core/engine"
	"github.com/A-Here-And-Now/perp-trader/trading_core/feed"
	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
	"github.com/A-Here-And-Now/perp-trader/trading_core/session"
	"github.com/A-Here-And-Now/perp-trader/trading_core/submit"
	"github.com/A-Here-And-Now/perp-trader/trading_core/wallet"
)

const marketEndpoint = "market"

// Terminal wires the feed multiplexer, market/account state, session
// persistence and the submission orchestrator together for the HTTP layer.
type Terminal struct {
	cfg       Config
	logger    *logger
	mux       *feed.Multiplexer
	market    *MarketState
	hub       *FrontEndHub
	accounts  *account.Store
	sessions  *session.Store
	engine    *engine.Client
	wallet    wallet.Wallet
	orch      *submit.Orchestrator
	refresher *Refresher

	accountSubMu sync.Mutex
	accountSubs  map[string]bool
}

func NewTerminal(ctx context.Context, cfg Config, l *logger) (*Terminal, error) {
	sessions, err := session.Open(cfg.Session.DBPath)
	if err != nil {
		return nil, err
	}

	t := &Terminal{
		cfg:         cfg,
		logger:      l,
		mux:         feed.NewMultiplexer(l.Logger),
		market:      NewMarketState(),
		hub:         NewFrontEndHub(),
		accounts:    account.NewStore(),
		sessions:    sessions,
		engine:      engine.NewClient(cfg.Engine.URL, cfg.Engine.APIKey, cfg.Engine.APISecret),
		accountSubs: make(map[string]bool),
	}

	w, err := wallet.NewEthWallet(ctx, cfg.Wallet.RPCURL, cfg.Wallet.PrivateKey, cfg.Wallet.Contract)
	if err != nil {
		// keep running without signing; submissions resolve WalletUnavailable
		l.Printf("wallet not available: %v", err)
		t.wallet = wallet.Unavailable{}
	} else {
		t.wallet = w
	}

	t.refresher = NewRefresher(t.engine, t.accounts, t.sessions, l.Logger)
	t.orch = submit.NewOrchestrator(
		t.accounts,
		t.wallet,
		t.engine,
		t.market.IndexPrice,
		t.refresher.RefreshNow,
		l.Logger,
	)

	for _, instrument := range cfg.Feed.Instruments {
		t.mux.Subscribe("ticker."+instrument, t.handleTicker)
		t.mux.Subscribe("orderbook."+instrument, t.handleOrderBook)
	}

	return t, nil
}

// ---------- FEED HANDLERS ----------

func (t *Terminal) handleTicker(data json.RawMessage) {
	var snap models.TickerSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.logger.Printf("[feed] ticker unmarshal error: %v", err)
		return
	}
	t.market.ApplyTicker(snap)
	t.hub.BroadcastTicker(models.GetFrontEndTicker(snap))
}

func (t *Terminal) handleOrderBook(data json.RawMessage) {
	var snap models.OrderBookSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.logger.Printf("[feed] orderbook unmarshal error: %v", err)
		return
	}
	table, err := depth.Aggregate(snap, t.cfg.Feed.DepthLevels)
	if err != nil {
		// a malformed level fails this aggregation, not the read loop
		t.logger.Printf("[feed] %s: %v", snap.InstrumentName, err)
		return
	}
	t.market.ApplyDepth(snap.InstrumentName, table)
	t.hub.BroadcastDepth(FrontEndDepth{
		Type:       "depth",
		Instrument: snap.InstrumentName,
		Asks:       table.Asks,
		Bids:       table.Bids,
		Time:       time.Now(),
	})
}

// watchAccountChannel subscribes to the account stream once per address.
// The stream only signals change; the refresh pulls the actual state, off
// the read goroutine so the handler never blocks delivery.
func (t *Terminal) watchAccountChannel(address string) {
	t.accountSubMu.Lock()
	defer t.accountSubMu.Unlock()
	if t.accountSubs[address] {
		return
	}
	t.accountSubs[address] = true
	t.mux.Subscribe("account."+address, func(json.RawMessage) {
		go func() {
			if err := t.refresher.RefreshNow(context.Background()); err != nil {
				t.logger.Printf("[feed] account refresh failed: %v", err)
			}
		}()
	})
}

// ---------- FEED LIFECYCLE ----------

// runFeedLoop keeps one market transport alive: connect, subscribe
// upstream, and redial with capped exponential backoff after a drop. The
// multiplexer itself never reconnects; that policy lives here.
func (t *Terminal) runFeedLoop(ctx context.Context) {
	backoff := 1 * time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		done, err := t.mux.Connect(ctx, marketEndpoint, t.cfg.Feed.URL)
		if err != nil {
			t.logger.Printf("feed connect failed: %v", err)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
			continue
		}
		backoff = 1 * time.Second
		t.subscribeUpstream()

		select {
		case <-ctx.Done():
			t.mux.Close(marketEndpoint)
			return
		case <-done:
			t.logger.Printf("feed disconnected; will attempt reconnect")
			time.Sleep(500 * time.Millisecond)
		}
	}
}

func (t *Terminal) subscribeUpstream() {
	channels := make([]string, 0, 2*len(t.cfg.Feed.Instruments))
	for _, instrument := range t.cfg.Feed.Instruments {
		channels = append(channels, "ticker."+instrument, "orderbook."+instrument)
	}
	sub := map[string]any{
		"type":     "subscribe",
		"channels": channels,
	}
	if err := t.mux.Send(marketEndpoint, sub); err != nil {
		t.logger.Printf("feed subscribe failed: %v", err)
	}
}

// ---------- MAIN ----------

func main() {
	l, err := newLogger()
	if err != nil {
		log.Printf("could not open log file, falling back to stdout: %v", err)
		l = &logger{log.New(os.Stdout, "", log.LstdFlags)}
	}

	configPath := os.Getenv("TERMINAL_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	shutdownCtx, shutdown := context.WithCancel(context.Background())

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutdown()
	}()

	terminal, err := NewTerminal(shutdownCtx, cfg, l)
	if err != nil {
		log.Fatalf("terminal init: %v", err)
	}
	defer terminal.sessions.Close()

	// a session restored as connected resumes its account stream and state
	if sess, err := terminal.sessions.Restore(shutdownCtx); err == nil && sess.IsConnected {
		terminal.watchAccountChannel(sess.Address)
		if err := terminal.refresher.RefreshNow(shutdownCtx); err != nil {
			l.Printf("startup account refresh failed: %v", err)
		}
	}

	go terminal.runFeedLoop(shutdownCtx)
	go terminal.refresher.Run(shutdownCtx, 15*time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("/order", terminal.orderHandler)
	mux.HandleFunc("/account", terminal.accountHandler)
	mux.HandleFunc("/depth", terminal.depthHandler)
	mux.HandleFunc("/session", terminal.sessionHandler)
	mux.HandleFunc("/connectWallet", terminal.connectWalletHandler)
	mux.HandleFunc("/disconnectWallet", terminal.disconnectWalletHandler)
	mux.HandleFunc("/ws", terminal.wsHandler)

	handler := loggingMiddleware(mux, l)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler,
		// all requests inherit shutdownCtx automatically
		BaseContext: func(_ net.Listener) context.Context { return shutdownCtx },
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server stopped with error: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
