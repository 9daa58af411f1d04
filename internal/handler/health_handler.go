package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger はヘルスチェックに必要なDB疎通確認のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// healthResponse はヘルスチェックのAPIレスポンス。
type healthResponse struct {
	Status string `json:"status"`
}

// NewHealthHandler はヘルスチェックのHTTPハンドラーを返す。
// DBに疎通できない場合は503を返す。
// GET /health
func NewHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			if err := db.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
				return
			}
		}

		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
