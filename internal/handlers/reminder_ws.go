package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/logging"
	"github.com/AnshRaj112/wellnest-backend/pkg/utils"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 60 * time.Second
)

var reminderUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkWSOrigin,
}

func checkWSOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(allowedOrigins) == 0 {
		return true
	}
	for _, o := range allowedOrigins {
		if strings.EqualFold(strings.TrimSpace(o), origin) {
			return true
		}
	}
	return false
}

// ReminderWebSocket streams the caller's dispatched reminders as JSON events.
// The owner is given by the email query parameter.
func ReminderWebSocket(w http.ResponseWriter, r *http.Request) {
	if reminderHub == nil {
		http.Error(w, "reminder feed unavailable", http.StatusServiceUnavailable)
		return
	}
	email := utils.NormalizeEmail(r.URL.Query().Get("email"))
	if !utils.IsValidEmail(email) {
		http.Error(w, "a valid email is required", http.StatusBadRequest)
		return
	}

	conn, err := reminderUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := reminderHub.Subscribe(email)
	defer sub.Close()

	// reader: only pongs and close frames are expected
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(4 * 1024)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case evt, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				logging.Debug().Err(err).Str("email", email).Msg("reminder feed write failed")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
