// Package auth はIDプロバイダー（Clerk）が発行したセッショントークンの検証を提供する。
// トークンの発行・失効はプロバイダー側の責務であり、本パッケージは
// 公開鍵によるステートレスな署名検証とクレームの取り出しのみを行う。
package auth

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/inkwell/internal/model"
)

// Principal は検証済みの呼び出し元を表す。
// リクエストごとに1回だけクレームから解決し、以降の認可判定へ明示的に渡す。
type Principal struct {
	ClerkUserID string
	Username    string
	Email       string
	ImageURL    string
	Role        model.Role
}

// IsAdmin は管理者ロールかを返す。
func (p *Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// sessionClaims はClerkのセッショントークンに含まれるクレーム。
// メールやアバターはJWTテンプレートの構成によりキーが揺れるため、
// image_urlとpictureの両方を受ける。
type sessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Picture  string `json:"picture,omitempty"`
	Metadata struct {
		Role string `json:"role,omitempty"`
	} `json:"metadata,omitempty"`
}

// Verifier はRS256署名のセッショントークンを検証する。
type Verifier struct {
	publicKey *rsa.PublicKey
}

// NewVerifier はPEM形式のRSA公開鍵からVerifierを生成する。
func NewVerifier(publicKeyPEM string) (*Verifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
	}
	return &Verifier{publicKey: key}, nil
}

// Verify はトークンの署名と有効期限を検証し、Principalを返す。
// ロールはmetadata.roleクレームから解決し、未指定の場合は"user"とする。
func (v *Verifier) Verify(tokenString string) (*Principal, error) {
	claims := &sessionClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return v.publicKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("session token has no subject")
	}

	imageURL := claims.ImageURL
	if imageURL == "" {
		imageURL = claims.Picture
	}

	role := model.RoleUser
	if claims.Metadata.Role == string(model.RoleAdmin) {
		role = model.RoleAdmin
	}

	return &Principal{
		ClerkUserID: claims.Subject,
		Username:    claims.Username,
		Email:       claims.Email,
		ImageURL:    imageURL,
		Role:        role,
	}, nil
}
