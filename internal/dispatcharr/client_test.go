package dispatcharr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(ttl).Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestTokenExpiry(t *testing.T) {
	exp := tokenExpiry(signedToken(t, time.Hour))
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	// Garbage tokens get a short conservative lifetime instead of an error.
	exp = tokenExpiry("not-a-jwt")
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)
}

func TestClientAuthAndRetry(t *testing.T) {
	logins := 0
	var issued string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/accounts/token/":
			logins++
			issued = signedToken(t, time.Hour)
			json.NewEncoder(w).Encode(tokenResponse{Access: issued, Refresh: "refresh-token"})
		case "/api/channels/channels/":
			if r.Header.Get("Authorization") != "Bearer "+issued {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode([]Channel{
				{ID: 1, Name: "Red Wings", ChannelNumber: 101},
				{ID: 2, Name: "Pistons", ChannelNumber: 102},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "secret", 5*time.Second)
	channels, err := c.ListChannels(context.Background())
	require.NoError(t, err)
	assert.Len(t, channels, 2)
	assert.Equal(t, 1, logins)

	// A stale token forces exactly one re-login. The planted token uses a
	// different ttl than the server issues so its bytes never collide with
	// the real one.
	c.mu.Lock()
	c.accessToken = signedToken(t, 2*time.Hour)
	c.expiresAt = time.Now().Add(time.Hour)
	c.mu.Unlock()
	channels, err = c.ListChannels(context.Background())
	require.NoError(t, err)
	assert.Len(t, channels, 2)
	assert.Equal(t, 2, logins)

	occupied, err := c.OccupiedNumbers(context.Background())
	require.NoError(t, err)
	assert.True(t, occupied[101])
	assert.True(t, occupied[102])
	assert.False(t, occupied[103])
}
