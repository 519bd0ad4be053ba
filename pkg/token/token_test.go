package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("secret", "todo", time.Minute)

	raw, expiresAt, err := m.Issue("user-1", "session-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("expiresAt = %v, want in the future", expiresAt)
	}

	claims, err := m.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.SessionID != "session-1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	m := NewManager("secret", "todo", time.Minute)
	valid, _, _ := m.Issue("user-1", "session-1")

	expired := NewManager("secret", "todo", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredToken, _, _ := expired.Issue("user-1", "session-1")

	otherIssuer, _, _ := NewManager("secret", "someone-else", time.Minute).Issue("user-1", "session-1")
	otherSecret, _, _ := NewManager("other", "todo", time.Minute).Issue("user-1", "session-1")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1", SessionID: "s"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	noSession, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "todo", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	}).SignedString([]byte("secret"))

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"garbage", "not-a-token", ErrInvalidToken},
		{"tampered", valid + "x", ErrInvalidToken},
		{"expired", expiredToken, ErrInvalidToken},
		{"wrong issuer", otherIssuer, ErrInvalidToken},
		{"wrong secret", otherSecret, ErrInvalidToken},
		{"alg none", none, ErrInvalidToken},
		{"missing session claim", noSession, ErrMissingClaim},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Parse(tt.raw); !errors.Is(err, tt.want) {
				t.Errorf("Parse err = %v, want %v", err, tt.want)
			}
		})
	}
}
