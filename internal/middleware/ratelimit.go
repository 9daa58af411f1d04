package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）
	GeneralBurst    int           // API全般のバーストサイズ
	ContactRate     rate.Limit    // お問い合わせ送信のレート（req/sec）
	ContactBurst    int           // お問い合わせ送信のバーストサイズ（＝ウィンドウ内の許容回数）
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// NewRateLimiterConfig はアプリ設定からレート制限設定を構築する。
// contactLimit回/contactWindowのクォータをトークンバケットに変換する。
// バースト＝許容回数なので、ウィンドウ先頭でcontactLimit回連続送信でき、
// それを超えた分が429となる。
func NewRateLimiterConfig(generalPerMinute, contactLimit int, contactWindow time.Duration) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(generalPerMinute) / 60.0),
		GeneralBurst:    generalPerMinute,
		ContactRate:     rate.Limit(float64(contactLimit) / contactWindow.Seconds()),
		ContactBurst:    contactLimit,
		CleanupInterval: 5 * time.Minute,
	}
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 要件: API全般 120 req/min、お問い合わせ 3回/15分。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return NewRateLimiterConfig(120, 3, 15*time.Minute)
}

// callerLimiter は呼び出し元ごとのレートリミッターとアクセス時刻を保持する。
type callerLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter は呼び出し元ごとのレート制限を管理する。
// キーは認証済みなら外部ID参照、匿名ならクライアントIPアドレス。
// API全般とお問い合わせ送信の2種類のクォータを独立に提供する。
// カウンタはプロセス内に保持され、複数インスタンス間では共有されない。
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*callerLimiter

	contactMu       sync.RWMutex
	contactLimiters map[string]*callerLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*callerLimiter),
		contactLimiters: make(map[string]*callerLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := CallerKey(r)

			limiter := rl.getOrCreate(&rl.generalMu, rl.generalLimiters, key, rl.config.GeneralRate, rl.config.GeneralBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("caller", key),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ContactMiddleware はお問い合わせ送信専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) ContactMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := CallerKey(r)

			limiter := rl.getOrCreate(&rl.contactMu, rl.contactLimiters, key, rl.config.ContactRate, rl.config.ContactBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.ContactRate)
				slog.Warn("rate limit exceeded",
					slog.String("caller", key),
					slog.String("limit_type", "contact"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CallerKey はレート制限のキーを解決する。
// 認証済みリクエストは外部ID参照、匿名リクエストはクライアントIPでキーイングする。
func CallerKey(r *http.Request) string {
	if principal, err := PrincipalFromContext(r.Context()); err == nil {
		return "clerk:" + principal.ClerkUserID
	}
	return "ip:" + ClientIP(r)
}

// ClientIP はクライアントのIPアドレスを解決する。
// X-Forwarded-Forがある場合は先頭のアドレスを使用する（リバースプロキシ前提）。
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// getOrCreate は呼び出し元キーに対するリミッターを取得または作成する。
func (rl *RateLimiter) getOrCreate(mu *sync.RWMutex, limiters map[string]*callerLimiter, key string, r rate.Limit, burst int) *rate.Limiter {
	mu.RLock()
	cl, exists := limiters[key]
	mu.RUnlock()

	if exists {
		mu.Lock()
		cl.lastAccess = time.Now()
		mu.Unlock()
		return cl.limiter
	}

	mu.Lock()
	defer mu.Unlock()

	// ダブルチェック
	if cl, exists := limiters[key]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(r, burst)
	limiters[key] = &callerLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻が古いエントリを削除する。
// お問い合わせ側はウィンドウが長いため、ウィンドウ相当の猶予を持たせる。
func (rl *RateLimiter) cleanup() {
	now := time.Now()

	generalTTL := rl.config.CleanupInterval * 2

	rl.generalMu.Lock()
	for key, cl := range rl.generalLimiters {
		if now.Sub(cl.lastAccess) > generalTTL {
			delete(rl.generalLimiters, key)
		}
	}
	rl.generalMu.Unlock()

	contactTTL := generalTTL
	if rl.config.ContactRate > 0 {
		refill := time.Duration(float64(rl.config.ContactBurst)/float64(rl.config.ContactRate)) * time.Second
		if refill > contactTTL {
			contactTTL = refill
		}
	}

	rl.contactMu.Lock()
	for key, cl := range rl.contactLimiters {
		if now.Sub(cl.lastAccess) > contactTTL {
			delete(rl.contactLimiters, key)
		}
	}
	rl.contactMu.Unlock()
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// ContactLimiterCount は現在管理されているお問い合わせリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) ContactLimiterCount() int {
	rl.contactMu.RLock()
	defer rl.contactMu.RUnlock()
	return len(rl.contactLimiters)
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]any{
		"success":  false,
		"code":     "RATE_LIMIT_EXCEEDED",
		"message":  "リクエストが多すぎます。しばらく待ってから再度お試しください。",
		"category": "system",
		"action":   "Retry-Afterヘッダーの秒数だけ待ってから再試行してください。",
	})
}
