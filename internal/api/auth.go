package api

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"signal-arena/internal/cache"
	"signal-arena/internal/clock"
	"signal-arena/internal/domain"
)

// Request signing headers.
const (
	HeaderSigner    = "X-Signer"
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp" // unix seconds
	HeaderNonce     = "X-Nonce"

	// DefaultSignatureWindow bounds the skew between X-Timestamp and the server clock.
	DefaultSignatureWindow = 5 * time.Minute

	signerKey   = "arena.signer"
	maxBody     = 1 << 20
	maxNonceLen = 64
)

// SignerAuth configures RequireSigner.
type SignerAuth struct {
	Insecure bool          // accept X-Signer without any signature
	Window   time.Duration // defaults to DefaultSignatureWindow
	Nonces   cache.Store   // remembers nonces for twice the window
	Clock    clock.Clock   // defaults to clock.System
}

// SigningMessage is what a signer signs: method, request URI, timestamp,
// nonce and the raw body, joined by newlines.
func SigningMessage(method, requestURI string, timestamp int64, nonce string, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(requestURI)
	b.WriteByte('\n')
	b.WriteString(strconv.FormatInt(timestamp, 10))
	b.WriteByte('\n')
	b.WriteString(nonce)
	b.WriteByte('\n')
	b.Write(body)
	return b.Bytes()
}

// RequireSigner authenticates the principal behind a mutating request.
// X-Signer is a base58 ed25519 public key and X-Signature a base58
// signature of SigningMessage. Each nonce is accepted once per signer.
func RequireSigner(a SignerAuth) gin.HandlerFunc {
	if a.Window <= 0 {
		a.Window = DefaultSignatureWindow
	}
	if a.Nonces == nil {
		a.Nonces = cache.NewMemoryStore()
	}
	if a.Clock == nil {
		a.Clock = clock.System{}
	}

	return func(c *gin.Context) {
		signer, err := domain.ParseAddress(c.GetHeader(HeaderSigner))
		if err != nil || signer.IsZero() {
			Error(c, http.StatusUnauthorized, "missing or invalid "+HeaderSigner, nil)
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
		if err != nil {
			Error(c, http.StatusBadRequest, "read body", nil)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !a.Insecure && !a.verify(c, signer, body) {
			return
		}

		c.Set(signerKey, signer)
		c.Next()
	}
}

// verify checks freshness, the signature and nonce reuse, writing the
// error response itself when it returns false.
func (a SignerAuth) verify(c *gin.Context, signer domain.Address, body []byte) bool {
	ts, err := strconv.ParseInt(c.GetHeader(HeaderTimestamp), 10, 64)
	if err != nil {
		Error(c, http.StatusUnauthorized, "missing or invalid "+HeaderTimestamp, nil)
		return false
	}
	skew := time.Duration(a.Clock.Now()-ts) * time.Second
	if skew < 0 {
		skew = -skew
	}
	if skew > a.Window {
		Error(c, http.StatusUnauthorized, "stale request timestamp", nil)
		return false
	}

	nonce := c.GetHeader(HeaderNonce)
	if nonce == "" || len(nonce) > maxNonceLen {
		Error(c, http.StatusUnauthorized, "missing or invalid "+HeaderNonce, nil)
		return false
	}

	sig, err := base58.Decode(c.GetHeader(HeaderSignature))
	if err != nil || len(sig) != ed25519.SignatureSize {
		Error(c, http.StatusUnauthorized, "missing or invalid "+HeaderSignature, nil)
		return false
	}
	msg := SigningMessage(c.Request.Method, c.Request.URL.RequestURI(), ts, nonce, body)
	if !ed25519.Verify(ed25519.PublicKey(signer[:]), msg, sig) {
		Error(c, http.StatusUnauthorized, "signature verification failed", nil)
		return false
	}

	fresh, err := a.claimNonce(c.Request.Context(), signer, nonce)
	if err != nil {
		Error(c, http.StatusServiceUnavailable, "nonce store unavailable", nil)
		return false
	}
	if !fresh {
		Error(c, http.StatusUnauthorized, "nonce already used", nil)
		return false
	}
	return true
}

func (a SignerAuth) claimNonce(ctx context.Context, signer domain.Address, nonce string) (bool, error) {
	key := "arena:nonce:" + signer.String() + ":" + nonce
	return a.Nonces.SetNX(ctx, key, []byte{1}, 2*a.Window)
}

// SignRequest signs req with key and sets every signing header. body must be
// the exact bytes req will send.
func SignRequest(req *http.Request, key ed25519.PrivateKey, body []byte, now time.Time) {
	ts := now.Unix()
	nonce := uuid.NewString()
	msg := SigningMessage(req.Method, req.URL.RequestURI(), ts, nonce, body)

	req.Header.Set(HeaderSigner, base58.Encode(key.Public().(ed25519.PublicKey)))
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderNonce, nonce)
	req.Header.Set(HeaderSignature, base58.Encode(ed25519.Sign(key, msg)))
}

func signerOf(c *gin.Context) domain.Address {
	v, _ := c.Get(signerKey)
	a, _ := v.(domain.Address)
	return a
}
