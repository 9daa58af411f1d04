package imagekit

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"testing"
	"time"
)

func TestSign_SignatureMatchesHMACSHA1(t *testing.T) {
	s := NewSigner("private_key_test")
	fixed := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	auth := s.Sign()

	if auth.Expire != fixed.Add(tokenTTL).Unix() {
		t.Errorf("Expire = %d, want %d", auth.Expire, fixed.Add(tokenTTL).Unix())
	}

	mac := hmac.New(sha1.New, []byte("private_key_test"))
	mac.Write([]byte(auth.Token + strconv.FormatInt(auth.Expire, 10)))
	want := hex.EncodeToString(mac.Sum(nil))

	if auth.Signature != want {
		t.Errorf("Signature = %q, want %q", auth.Signature, want)
	}
}

func TestSign_TokensAreUnique(t *testing.T) {
	s := NewSigner("key")

	a := s.Sign()
	b := s.Sign()
	if a.Token == b.Token {
		t.Error("tokens should be unique per request")
	}
}

func TestEnabled(t *testing.T) {
	if NewSigner("").Enabled() {
		t.Error("Enabled() = true for empty key")
	}
	if !NewSigner("k").Enabled() {
		t.Error("Enabled() = false for configured key")
	}
}
