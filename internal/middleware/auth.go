// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/inkwell/internal/auth"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストに検証済みPrincipalを格納するためのキー。
var principalContextKey = contextKey("principal")

// principalHolderContextKey はprincipalHolderを格納するためのキー。
var principalHolderContextKey = contextKey("principalHolder")

// principalHolder は認証より前段に積まれたミドルウェア（ロギング等）が
// 解決済みPrincipalを参照するための書き込み先。認証ミドルウェアは
// コンテキストへの注入と同時に、ホルダーがあればそこにも書き込む。
type principalHolder struct {
	principal *auth.Principal
}

// withPrincipalHolder はコンテキストにprincipalHolderを格納する。
func withPrincipalHolder(ctx context.Context, holder *principalHolder) context.Context {
	return context.WithValue(ctx, principalHolderContextKey, holder)
}

// injectPrincipal は検証済みPrincipalをリクエストコンテキストに注入する。
// 前段のミドルウェアがホルダーを積んでいれば、そちらにも書き込む。
func injectPrincipal(r *http.Request, principal *auth.Principal) *http.Request {
	ctx := context.WithValue(r.Context(), principalContextKey, principal)
	if holder, ok := ctx.Value(principalHolderContextKey).(*principalHolder); ok {
		holder.principal = principal
	}
	return r.WithContext(ctx)
}

// TokenVerifier はセッショントークン検証に必要なインターフェース。
// auth.Verifierの部分集合として定義する。
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Principal, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// Principalをリクエストコンテキストに注入するミドルウェアを返す。
// トークンが無い、または無効なリクエストには401 Unauthorizedを返す。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := verifyRequest(verifier, r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, injectPrincipal(r, principal))
		})
	}
}

// NewOptionalAuthMiddleware は有効なBearerトークンがあればPrincipalを注入し、
// 無ければ匿名のままリクエストを通すミドルウェアを返す。
// 公開エンドポイント（記事閲覧、お問い合わせ等）で使用する。
func NewOptionalAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if principal, ok := verifyRequest(verifier, r); ok {
				r = injectPrincipal(r, principal)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// verifyRequest はリクエストからBearerトークンを取り出して検証する。
func verifyRequest(verifier TokenVerifier, r *http.Request) (*auth.Principal, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, false
	}

	principal, err := verifier.Verify(token)
	if err != nil {
		return nil, false
	}
	return principal, true
}

// PrincipalFromContext はリクエストコンテキストから検証済みPrincipalを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func PrincipalFromContext(ctx context.Context) (*auth.Principal, error) {
	principal, ok := ctx.Value(principalContextKey).(*auth.Principal)
	if !ok || principal == nil {
		return nil, fmt.Errorf("principal not found in context")
	}
	return principal, nil
}

// ContextWithPrincipal はコンテキストにPrincipalを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, principal *auth.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}
