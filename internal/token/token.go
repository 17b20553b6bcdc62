// Package token implements the HMAC bearer-token scheme used by the API.
//
// A token is "{timestampMillis}.{hexHmacSignature}" where the signature is
// HMAC-SHA256 over the decimal timestamp string, keyed by the shared secret.
// The timestamp is carried in plaintext; only integrity is protected.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is the validity window for issued tokens.
const DefaultTTL = 8 * time.Hour

// Codec signs and verifies bearer tokens. The zero value is unusable;
// construct with New. Both methods take the current time explicitly so
// the codec stays pure and testable.
type Codec struct {
	secret string
	ttl    time.Duration
}

// New creates a Codec keyed by secret. A ttl of zero means DefaultTTL.
// An empty secret is accepted but makes tokens forgeable by anyone.
func New(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: secret, ttl: ttl}
}

// Sign mints a token for the given issuance instant in milliseconds
// since the Unix epoch.
func (c *Codec) Sign(nowMillis int64) string {
	ts := strconv.FormatInt(nowMillis, 10)
	return ts + "." + c.signature(ts)
}

// Verify reports whether tok carries a valid signature and was issued
// within the TTL window relative to nowMillis. It never returns an
// error: any malformed token is simply invalid.
func (c *Codec) Verify(tok string, nowMillis int64) bool {
	ts, sig, ok := strings.Cut(tok, ".")
	if !ok || ts == "" || sig == "" {
		return false
	}
	issued, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	// Constant-time comparison to avoid timing side-channels on the
	// signature check.
	if !hmac.Equal([]byte(sig), []byte(c.signature(ts))) {
		return false
	}
	return nowMillis-issued <= c.ttl.Milliseconds()
}

func (c *Codec) signature(ts string) string {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(ts))
	return hex.EncodeToString(mac.Sum(nil))
}
