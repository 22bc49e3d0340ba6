package social

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// StateCodec round-trips the OAuth state parameter.
type StateCodec interface {
	Encode(state *State) (string, error)
	Decode(token string) (*State, error)
}

// State is what travels through the provider in the state parameter. It
// carries flow context only, no secrets: the role the caller picked at the
// start of the flow and where to land afterwards.
type State struct {
	Role        string `json:"role,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Nonce       string `json:"nonce"`
	IssuedAt    int64  `json:"iat"`
}

// PlainStateCodec packs the state as base64 JSON with no signature. A
// tampered state can at worst pick a different signup role, and the resolver
// re-validates the role against the closed set anyway.
type PlainStateCodec struct{}

// Encode packs the state.
func (PlainStateCodec) Encode(state *State) (string, error) {
	if state == nil {
		return "", ErrInvalidState
	}

	if state.IssuedAt == 0 {
		state.IssuedAt = time.Now().Unix()
	}
	if state.Nonce == "" {
		state.Nonce = generateNonce()
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	return base64.URLEncoding.EncodeToString(raw), nil
}

// Decode unpacks the state. Any structural problem comes back as
// ErrInvalidState so callers can fall back to flow defaults.
func (PlainStateCodec) Decode(token string) (*State, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidState
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, ErrInvalidState
	}

	return &state, nil
}

// SignedStateCodec adds an HMAC-SHA256 signature and a TTL on top of the
// plain encoding for deployments that want tamper detection on the state.
type SignedStateCodec struct {
	hmacKey []byte
	ttl     time.Duration
}

// NewSignedStateCodec creates a signing codec. A zero ttl defaults to ten
// minutes.
func NewSignedStateCodec(hmacKey []byte, ttl time.Duration) *SignedStateCodec {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &SignedStateCodec{
		hmacKey: hmacKey,
		ttl:     ttl,
	}
}

// Encode signs and packs the state.
func (sc *SignedStateCodec) Encode(state *State) (string, error) {
	if state == nil {
		return "", ErrInvalidState
	}

	if state.IssuedAt == 0 {
		state.IssuedAt = time.Now().Unix()
	}
	if state.Nonce == "" {
		state.Nonce = generateNonce()
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	mac := hmac.New(sha256.New, sc.hmacKey)
	mac.Write(payload)
	signature := mac.Sum(nil)

	return base64.URLEncoding.EncodeToString(append(signature, payload...)), nil
}

// Decode verifies the signature and the TTL before unpacking.
func (sc *SignedStateCodec) Decode(token string) (*State, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidState
	}

	if len(data) < sha256.Size {
		return nil, ErrInvalidState
	}

	signature := data[:sha256.Size]
	payload := data[sha256.Size:]

	mac := hmac.New(sha256.New, sc.hmacKey)
	mac.Write(payload)
	expectedMAC := mac.Sum(nil)

	if !hmac.Equal(signature, expectedMAC) {
		return nil, ErrInvalidState
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, ErrInvalidState
	}

	if state.IssuedAt > 0 && time.Now().After(time.Unix(state.IssuedAt, 0).Add(sc.ttl)) {
		return nil, ErrStateExpired
	}

	return &state, nil
}

func generateNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
