// Package devtoken mints unsigned Firebase-shaped ID tokens for local agents.
package devtoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Params captures the claims of a local agent token. No environment variables
// are read so the builder stays deterministic for tooling.
type Params struct {
	ProjectID              string        // Firebase project id; used for aud and iss
	AgentID                string        // user_id/sub (required); owns every lead and quick note
	Email                  string        // email claim (required)
	Name                   string        // display name (optional)
	EmailVerified          bool          // email_verified claim
	FirebaseSignInProvider string        // firebase.sign_in_provider; default "password"
	ExpiresIn              time.Duration // relative expiry; default 1h if zero
	Audience               string        // optional override; defaults to ProjectID
	Issuer                 string        // optional override; defaults to https://securetoken.google.com/<projectId>
}

type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

type firebaseClaim struct {
	Identities     map[string][]string `json:"identities"`
	SignInProvider string              `json:"sign_in_provider"`
}

// claims mirrors the payload of a Firebase ID token.
type claims struct {
	Issuer        string        `json:"iss"`
	Audience      string        `json:"aud"`
	AuthTime      int64         `json:"auth_time"`
	UserID        string        `json:"user_id"`
	Subject       string        `json:"sub"`
	IssuedAt      int64         `json:"iat"`
	ExpiresAt     int64         `json:"exp"`
	Email         string        `json:"email"`
	EmailVerified bool          `json:"email_verified"`
	Name          string        `json:"name,omitempty"`
	Firebase      firebaseClaim `json:"firebase"`
}

// BuildUnsignedFirebaseToken returns a JWT with alg "none" and no signature
// segment. It flows through the API auth middleware when AUTH_PROVIDER=dev.
func BuildUnsignedFirebaseToken(p Params, now time.Time) (string, error) {
	switch {
	case strings.TrimSpace(p.ProjectID) == "":
		return "", errors.New("projectID is required")
	case strings.TrimSpace(p.AgentID) == "":
		return "", errors.New("agentID is required")
	case strings.TrimSpace(p.Email) == "":
		return "", errors.New("email is required")
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}
	expiresIn := p.ExpiresIn
	if expiresIn == 0 {
		expiresIn = time.Hour
	}

	payload := claims{
		Issuer:        orDefault(p.Issuer, "https://securetoken.google.com/"+p.ProjectID),
		Audience:      orDefault(p.Audience, p.ProjectID),
		AuthTime:      now.Unix(),
		UserID:        p.AgentID,
		Subject:       p.AgentID,
		IssuedAt:      now.Unix(),
		ExpiresAt:     now.Add(expiresIn).Unix(),
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
		Name:          strings.TrimSpace(p.Name),
		Firebase: firebaseClaim{
			Identities:     map[string][]string{"email": {p.Email}},
			SignInProvider: orDefault(p.FirebaseSignInProvider, "password"),
		},
	}

	headerSegment, err := encodeSegment(header{Alg: "none", Typ: "JWT"})
	if err != nil {
		return "", err
	}
	payloadSegment, err := encodeSegment(payload)
	if err != nil {
		return "", err
	}
	return headerSegment + "." + payloadSegment, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func encodeSegment(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
