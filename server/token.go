package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aufmass/go-aufmass/config"
	"github.com/google/uuid"
)

// Guest tokens are a signed claim on one project: base64url payload, a dot,
// base64url HMAC-SHA256 over the payload. No server-side session state.

var errInvalidToken = errors.New("invalid guest token")

type tokenPayload struct {
	ProjectID string `json:"project_id"`
	IssuedAt  int64  `json:"ts"`
	Nonce     string `json:"nonce"`
}

func (s *Server) issueToken(projectID string) (string, error) {
	return s.signToken(projectID, time.Now())
}

func (s *Server) signToken(projectID string, issuedAt time.Time) (string, error) {
	payload, err := json.Marshal(tokenPayload{
		ProjectID: projectID,
		IssuedAt:  issuedAt.Unix(),
		Nonce:     uuid.NewString(),
	})
	if err != nil {
		return "", errors.Join(errors.New("marshal token exception"), err)
	}
	mac := hmac.New(sha256.New, []byte(s.config.Guest.Secret))
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// verifyToken returns the project id a valid, unexpired token was issued for.
func (s *Server) verifyToken(token string) (string, error) {
	encodedPayload, encodedSig, found := strings.Cut(token, ".")
	if !found {
		return "", errInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return "", errInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(encodedSig)
	if err != nil {
		return "", errInvalidToken
	}
	mac := hmac.New(sha256.New, []byte(s.config.Guest.Secret))
	mac.Write(payload)
	if subtle.ConstantTimeCompare(sig, mac.Sum(nil)) != 1 {
		return "", errInvalidToken
	}
	var claims tokenPayload
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", errInvalidToken
	}
	issued := time.Unix(claims.IssuedAt, 0)
	now := time.Now()
	if issued.After(now) || now.Sub(issued) > config.GUEST_TOKEN_TTL {
		return "", errInvalidToken
	}
	if claims.ProjectID == "" {
		return "", errInvalidToken
	}
	return claims.ProjectID, nil
}
