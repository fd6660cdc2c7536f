package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Connector is the piece of the linker registry the API needs.
type Connector interface {
	Register(url string)
	Connected(url string) bool
}

type registerRequest struct {
	BattleSocketURL string `json:"battleSocketUrl"`
}

// RegisterServer accepts a game server's battle-socket URL and starts the
// outbound connection toward it. Authenticated with the shared token.
func RegisterServer(reg Connector, token string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing or invalid authorization header"})
			return
		}
		if strings.TrimPrefix(auth, "Bearer ") != token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			return
		}

		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BattleSocketURL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing battleSocketUrl"})
			return
		}

		if !reg.Connected(req.BattleSocketURL) {
			log.Info("registering game server", zap.String("url", req.BattleSocketURL))
			reg.Register(req.BattleSocketURL)
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
