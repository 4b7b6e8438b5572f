package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"proposalforge/internal/debate"
)

const (
	watchWSWriteWait = 10 * time.Second
	watchWSPongWait  = 60 * time.Second
	watchWSPingEvery = (watchWSPongWait * 9) / 10
)

var watchWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// HandleWatch streams orchestrator snapshots over a websocket so the UI can
// render the debate as it happens. GET /v1/projects/{id}/watch
func (h *ProjectHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.svc.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "project is not loaded", http.StatusNotFound)
		return
	}

	conn, err := watchWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(watchWSPongWait)); err != nil {
		log.Printf("watch ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchWSPongWait))
	})

	snaps, unsubscribe := rt.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// The current state first, then live updates.
	if err := writeSnapshot(conn, rt.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(watchWSPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if err := writeSnapshot(conn, snap); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeSnapshot(conn *websocket.Conn, snap debate.Snapshot) error {
	if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(snap)
}
