package main

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/A-Here-And-Now/perp-trader/trading_core/channel_helper"
	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
)

var wsUpgrader = websocket.Upgrader{
	// In dev you usually want to allow any origin.
	// In production lock this down to your domain.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FrontEndDepth is the aggregated depth view pushed to the terminal UI.
// Asks arrive best-price-first; the UI renders them reversed above the
// bids so best ask and best bid sit adjacent.
type FrontEndDepth struct {
	Type       string            `json:"type"`
	Instrument string            `json:"instrument"`
	Asks       []models.DepthRow `json:"asks"`
	Bids       []models.DepthRow `json:"bids"`
	Time       time.Time         `json:"time"`
}

// FrontEndResource is one connected UI client. Feeds buffer a single
// latest value; a slow client drops intermediate frames rather than
// stalling the read loop.
type FrontEndResource struct {
	tickerFeed chan models.FrontEndTicker
	depthFeed  chan FrontEndDepth
}

func NewFrontEndResource() *FrontEndResource {
	return &FrontEndResource{
		tickerFeed: make(chan models.FrontEndTicker, 1),
		depthFeed:  make(chan FrontEndDepth, 1),
	}
}

// FrontEndHub fans market updates out to every connected UI client.
type FrontEndHub struct {
	mu      sync.Mutex
	clients map[*FrontEndResource]struct{}
}

func NewFrontEndHub() *FrontEndHub {
	return &FrontEndHub{clients: make(map[*FrontEndResource]struct{})}
}

func (h *FrontEndHub) Register(r *FrontEndResource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[r] = struct{}{}
}

func (h *FrontEndHub) Unregister(r *FrontEndResource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, r)
}

func (h *FrontEndHub) snapshot() []*FrontEndResource {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients := make([]*FrontEndResource, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

func (h *FrontEndHub) BroadcastTicker(t models.FrontEndTicker) {
	for _, c := range h.snapshot() {
		channel_helper.WriteToChannelAndBufferLatest(c.tickerFeed, t)
	}
}

func (h *FrontEndHub) BroadcastDepth(d FrontEndDepth) {
	for _, c := range h.snapshot() {
		channel_helper.WriteToChannelAndBufferLatest(c.depthFeed, d)
	}
}

// wsHandler streams ticker and depth frames to one UI client until it
// disconnects.
func (t *Terminal) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}
	defer conn.Close()

	res := NewFrontEndResource()
	t.hub.Register(res)
	defer t.hub.Unregister(res)

	done := make(chan struct{})

	// reader goroutine only detects client close
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case tick := <-res.tickerFeed:
			if err := conn.WriteJSON(tick); err != nil {
				log.Printf("[WS] write ticker error: %v", err)
				return
			}
		case d := <-res.depthFeed:
			if err := conn.WriteJSON(d); err != nil {
				log.Printf("[WS] write depth error: %v", err)
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
