package server

import (
	"strings"
	"testing"
	"time"

	"github.com/aufmass/go-aufmass/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(secret string) *Server {
	return &Server{config: config.Config{Guest: config.Guest{Secret: secret}}}
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTokenServer("test-secret")

	token, err := s.issueToken("project-1")
	require.NoError(t, err)

	projectID, err := s.verifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "project-1", projectID)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := newTokenServer("secret-a").issueToken("project-1")
	require.NoError(t, err)

	_, err = newTokenServer("secret-b").verifyToken(token)
	assert.ErrorIs(t, err, errInvalidToken)
}

func TestTokenRejectsTampering(t *testing.T) {
	s := newTokenServer("test-secret")
	token, err := s.issueToken("project-1")
	require.NoError(t, err)

	payload, sig, found := strings.Cut(token, ".")
	require.True(t, found)

	// flip a payload byte, keep the signature
	mutated := []byte(payload)
	if mutated[0] == 'A' {
		mutated[0] = 'B'
	} else {
		mutated[0] = 'A'
	}
	_, err = s.verifyToken(string(mutated) + "." + sig)
	assert.ErrorIs(t, err, errInvalidToken)

	_, err = s.verifyToken(payload)
	assert.ErrorIs(t, err, errInvalidToken, "missing signature part")

	_, err = s.verifyToken("")
	assert.ErrorIs(t, err, errInvalidToken)
}

func TestTokenExpires(t *testing.T) {
	s := newTokenServer("test-secret")

	stale, err := s.signToken("project-1", time.Now().Add(-config.GUEST_TOKEN_TTL-time.Minute))
	require.NoError(t, err)
	_, err = s.verifyToken(stale)
	assert.ErrorIs(t, err, errInvalidToken)

	fresh, err := s.signToken("project-1", time.Now().Add(-config.GUEST_TOKEN_TTL+time.Minute))
	require.NoError(t, err)
	_, err = s.verifyToken(fresh)
	assert.NoError(t, err, "token inside its lifetime is accepted")

	future, err := s.signToken("project-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = s.verifyToken(future)
	assert.ErrorIs(t, err, errInvalidToken, "future-dated tokens are rejected")
}

func TestTokensAreUnique(t *testing.T) {
	s := newTokenServer("test-secret")
	first, err := s.issueToken("project-1")
	require.NoError(t, err)
	second, err := s.issueToken("project-1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "each issue carries a fresh nonce")
}
