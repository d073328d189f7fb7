package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, publicURL string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"conns":   hub.TotalConns(),
			"clients": hub.ClientCount(),
			"online":  hub.OnlineCount(),
			"matches": hub.matches.ActiveCount(),
		})
	})

	// Spectate snapshot for a live match; the QR links land here
	mux.HandleFunc("/watch/", func(w http.ResponseWriter, r *http.Request) {
		matchID := strings.TrimPrefix(r.URL.Path, "/watch/")
		m := hub.matches.Get(matchID)
		if matchID == "" || m == nil {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}
		p1, p2, round := m.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"mid":   matchID,
			"p1":    p1,
			"p2":    p2,
			"round": RoundInfo{
				Phase:    int(round.Phase),
				Round:    round.Round,
				TimeLeft: round.TimeLeft,
				Score1:   round.Score1,
				Score2:   round.Score2,
				WinnerID: round.WinnerID,
			},
		})
	})

	// QR code PNG encoding a spectate link for a live match
	mux.HandleFunc("/qr/", func(w http.ResponseWriter, r *http.Request) {
		matchID := strings.TrimPrefix(r.URL.Path, "/qr/")
		if matchID == "" || hub.matches.Get(matchID) == nil {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}
		link := fmt.Sprintf("%s/watch/%s", publicURL, matchID)
		png, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	})

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	return mux
}
