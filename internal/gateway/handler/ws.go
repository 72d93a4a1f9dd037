package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"animaldex/internal/gateway/middleware"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var discoveryWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type discoveryWSOutbound struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
	Level int    `json:"level,omitempty"`
	Badge string `json:"badge,omitempty"`
}

// HandleDiscoveriesWS streams the logged-in player's new discoveries.
func (a *API) HandleDiscoveriesWS(w http.ResponseWriter, r *http.Request) {
	handle, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}

	conn, err := discoveryWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		a.log.Warn("discovery ws set read deadline failed", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	writeCh := make(chan discoveryWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	subCh := a.hub.Subscribe(ctx, handle)
	pushDiscoveryWS(writeCh, discoveryWSOutbound{Type: "subscribed"})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-subCh:
				if !ok {
					return
				}
				pushDiscoveryWS(writeCh, discoveryWSOutbound{
					Type:  "discovery",
					Label: evt.Label,
					Level: evt.Level,
					Badge: evt.Badge,
				})
			}
		}
	}()

	// Reader loop only services pings and detects the client leaving.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			<-writerDone
			return
		}
	}
}

func pushDiscoveryWS(ch chan<- discoveryWSOutbound, out discoveryWSOutbound) {
	select {
	case ch <- out:
	default:
	}
}
