package scorerstub

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/intake/internal/domain/model"
)

const tokenHeader = "X-Internal-Token"

type scoreRequest struct {
	UserID     string           `json:"userId"`
	ParsedData model.ParsedData `json:"parsedData"`
}

type scoreResponse struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// NewHandler builds the stub engine's HTTP surface: POST /score guarded
// by the shared internal token, and GET /healthz.
func NewHandler(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/score", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get(tokenHeader) != token {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "invalid internal token"})
			return
		}
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "malformed score request"})
			return
		}
		score, explanation := Evaluate(req.ParsedData)
		writeJSON(w, http.StatusOK, scoreResponse{Score: score, Explanation: explanation})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
