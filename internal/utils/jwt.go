package utils // package utils provides helpers for password hashing and session tokens

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is the fixed lifetime of a session token and of the cookie
// that carries it.
const SessionTTL = 24 * time.Hour

var (
	// ErrInvalidToken covers every verification failure: bad signature,
	// expiry, malformed input or an unexpected algorithm.  Callers must not
	// be able to tell them apart.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("jwt secret is empty")
)

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	UserID   uint64 `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens with a single secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer refuses to build an issuer without a secret.
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	return &TokenIssuer{secret: []byte(secret), ttl: SessionTTL, now: time.Now}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *t
	cp.now = now
	return &cp
}

// Issue signs a token for the given user and returns it with its expiry.
func (t *TokenIssuer) Issue(userID uint64, username, role string) (string, time.Time, error) {
	iat := t.now().UTC()
	exp := iat.Add(t.ttl)
	claims := SessionClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
func (t *TokenIssuer) Verify(raw string) (*SessionClaims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// LegacyToken is the payload of the pre-JWT cookie format
// base64("<username>:<unix millis>").
type LegacyToken struct {
	Username string
	IssuedAt time.Time
}

// ParseLegacyToken decodes a legacy cookie value.  It only checks shape;
// whether the username is acceptable is up to the caller.
func ParseLegacyToken(raw string) (LegacyToken, bool) {
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return LegacyToken{}, false
	}
	name, ms, ok := strings.Cut(string(b), ":")
	if !ok || name == "" {
		return LegacyToken{}, false
	}
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil || n <= 0 {
		return LegacyToken{}, false
	}
	return LegacyToken{Username: name, IssuedAt: time.UnixMilli(n).UTC()}, true
}

// EncodeLegacyToken produces a legacy cookie value.  Only used by tests and
// migration tooling; the server never issues legacy tokens.
func EncodeLegacyToken(username string, at time.Time) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + strconv.FormatInt(at.UnixMilli(), 10)))
}
