package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/grid-tactics-server/internal/catalog"
	"github.com/DoyleJ11/grid-tactics-server/internal/hub"
	"github.com/DoyleJ11/grid-tactics-server/internal/lobby"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateLobby(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for {
			code, err := GenerateCode()
			if err != nil {
				log.Error("generating room code", zap.Error(err))
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *lobby.Lobby, 1)
			lb, ok := ask(r, h, hub.CreateLobby{Code: code, Reply: reply}, reply)
			if !ok {
				http.Error(w, "server shutting down", http.StatusServiceUnavailable)
				return
			}
			if lb == nil {
				log.Debug("collision on code, regenerating", zap.String("room", code))
				continue
			}

			writeJSON(w, http.StatusCreated, struct {
				Code string `json:"code"`
			}{Code: code})
			return
		}
	}
}

func ListLobbies(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []string, 1)
		codes, ok := ask(r, h, hub.ListLobbies{Reply: reply}, reply)
		if !ok {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		sort.Strings(codes)
		writeJSON(w, http.StatusOK, struct {
			Codes []string `json:"codes"`
		}{Codes: codes})
	}
}

// DeleteLobby shuts a room down and disconnects everyone in it. The default
// room cannot be removed.
func DeleteLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if code == h.DefaultRoom() {
			http.Error(w, "default room cannot be removed", http.StatusConflict)
			return
		}
		reply := make(chan bool, 1)
		removed, ok := ask(r, h, hub.RemoveLobby{Code: code, Reply: reply}, reply)
		if !ok {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		if !removed {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Skills serves the catalog so clients can build characters against it.
func Skills(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cat.All())
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ask sends msg to the hub and waits for its answer on reply. It gives up
// when the request is cancelled or the hub has stopped.
func ask[T any](r *http.Request, h *hub.Hub, msg hub.HubMsg, reply chan T) (T, bool) {
	if !h.Send(r.Context(), msg) {
		var zero T
		return zero, false
	}
	return hub.Await(r.Context(), h, reply)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
