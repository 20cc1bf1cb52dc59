package api

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/parassareen1/relay-chat/internal/broker"
	"github.com/parassareen1/relay-chat/internal/types"
)

type SetStatusRequest struct {
	Id     string           `json:"id"`
	Status types.RoomStatus `json:"status"`
}

type SetPriorityRequest struct {
	Id       string             `json:"id"`
	Priority types.RoomPriority `json:"priority"`
}

func (s *RelayApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

// adminMiddleware gates dashboard REST endpoints behind the shared
// admin key, passed as a header or query parameter.
func (s *RelayApp) adminMiddleware(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("admin-key")
		if key == "" {
			key = r.URL.Query().Get("adminKey")
		}

		if key != s.adminKey {
			errResp := NewForbiddenError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		next(w, r)
	})
}

func (s *RelayApp) health(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *RelayApp) getRooms(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, s.store.ListSummaries())
}

// deleteRoom goes through the broker rather than the store so that
// participants get the same roomDeleted fan-out and presence cleanup as
// a wire-level delete.
func (s *RelayApp) deleteRoom(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.broker.DeleteRoom(id) {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"id": id})
}

func (s *RelayApp) setRoomStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Id == "" || !req.Status.Valid() {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.store.SetStatus(req.Id, req.Status)
	s.writeJson(w, http.StatusOK, req)
}

func (s *RelayApp) setRoomPriority(w http.ResponseWriter, r *http.Request) {
	var req SetPriorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Id == "" || !req.Priority.Valid() {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.store.SetPriority(req.Id, req.Priority)
	s.writeJson(w, http.StatusOK, req)
}

func (s *RelayApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := broker.NewClient(conn, s.broker, s.log)

	s.broker.RegisterClient(client)
	go client.Write()
	go client.Read()

	// never blocks or fails connection acceptance
	s.notifier.ClientConnected(client.Id())
}
