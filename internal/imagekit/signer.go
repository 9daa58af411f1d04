// Package imagekit は画像アップロードの認証パラメータ生成を提供する。
//
// クライアントはここで発行したワンタイムパラメータを使って
// 画像ストレージへ直接アップロードする。秘密鍵はサーバー側に留まる。
package imagekit

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// tokenTTL は発行したアップロード認証の有効期間。
const tokenTTL = 30 * time.Minute

// UploadAuth はアップロード認証パラメータ。
// 署名方式はストレージ側の仕様に合わせ HMAC-SHA1(token + expire, privateKey)。
type UploadAuth struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"`
	Signature string `json:"signature"`
}

// Signer はアップロード認証パラメータの発行者。
type Signer struct {
	privateKey string
	now        func() time.Time
}

// NewSigner はSignerを生成する。
func NewSigner(privateKey string) *Signer {
	return &Signer{privateKey: privateKey, now: time.Now}
}

// Sign は新しいワンタイムのアップロード認証パラメータを発行する。
func (s *Signer) Sign() UploadAuth {
	token := uuid.New().String()
	expire := s.now().Add(tokenTTL).Unix()

	mac := hmac.New(sha1.New, []byte(s.privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))

	return UploadAuth{
		Token:     token,
		Expire:    expire,
		Signature: hex.EncodeToString(mac.Sum(nil)),
	}
}

// Enabled は秘密鍵が設定されているかを返す。
func (s *Signer) Enabled() bool {
	return s.privateKey != ""
}
