package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhublabs/medhub/pkg/session"
)

func newAPIServer(t *testing.T, handler func(endpoint string, body map[string]interface{}) (int, interface{})) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		endpoint := r.URL.Path
		status, resp := handler(endpoint, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func apiError(message string) interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{"message": message},
	}
}

func TestVerifyCredentialsSuccess(t *testing.T) {
	srv := newAPIServer(t, func(endpoint string, body map[string]interface{}) (int, interface{}) {
		assert.Equal(t, "/v1/accounts:signInWithPassword", endpoint)
		assert.Equal(t, "a@b.com", body["email"])
		return http.StatusOK, map[string]interface{}{
			"localId":     "U1",
			"email":       "a@b.com",
			"displayName": "Dr. A",
			"idToken":     "unused",
		}
	})

	p, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	ident, err := p.VerifyCredentials(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, session.Identity{ID: "U1", Email: "a@b.com", DisplayName: "Dr. A"}, ident)
}

func TestVerifyCredentialsFillsFromTokenClaims(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "U9",
		"email": "claims@b.com",
		"name":  "From Claims",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	srv := newAPIServer(t, func(endpoint string, body map[string]interface{}) (int, interface{}) {
		// Response body omits the display fields; only the token has them.
		return http.StatusOK, map[string]interface{}{
			"localId": "U9",
			"idToken": token,
		}
	})

	p, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	ident, err := p.VerifyCredentials(context.Background(), "claims@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "claims@b.com", ident.Email)
	assert.Equal(t, "From Claims", ident.DisplayName)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		message string
		status  int
		want    error
	}{
		{"wrong password", "INVALID_PASSWORD", http.StatusBadRequest, session.ErrInvalidCredentials},
		{"unknown account", "EMAIL_NOT_FOUND", http.StatusBadRequest, session.ErrInvalidCredentials},
		{"duplicate email", "EMAIL_EXISTS", http.StatusBadRequest, session.ErrEmailInUse},
		{"weak password", "WEAK_PASSWORD : Password should be at least 6 characters", http.StatusBadRequest, session.ErrWeakCredential},
		{"server down", "INTERNAL", http.StatusInternalServerError, session.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newAPIServer(t, func(endpoint string, body map[string]interface{}) (int, interface{}) {
				return tt.status, apiError(tt.message)
			})
			p, err := New(Config{BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = p.VerifyCredentials(context.Background(), "a@b.com", "pw")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSendCredentialResetUnknownEmail(t *testing.T) {
	srv := newAPIServer(t, func(endpoint string, body map[string]interface{}) (int, interface{}) {
		assert.Equal(t, "/v1/accounts:sendOobCode", endpoint)
		assert.Equal(t, "PASSWORD_RESET", body["requestType"])
		return http.StatusBadRequest, apiError("EMAIL_NOT_FOUND")
	})

	p, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	err = p.SendCredentialReset(context.Background(), "nobody@b.com")
	assert.ErrorIs(t, err, session.ErrUnknownEmail)
}

func TestEndSessionNotifiesListeners(t *testing.T) {
	srv := newAPIServer(t, func(endpoint string, body map[string]interface{}) (int, interface{}) {
		return http.StatusOK, map[string]interface{}{"localId": "U1", "email": "a@b.com"}
	})

	p, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	var events []*session.Identity
	p.OnSessionChange(func(ident *session.Identity) {
		events = append(events, ident)
	})
	require.Len(t, events, 1) // fires with current state at attach
	assert.Nil(t, events[0])

	_, err = p.VerifyCredentials(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.NotNil(t, events[1])

	require.NoError(t, p.EndSession(context.Background()))
	require.Len(t, events, 3)
	assert.Nil(t, events[2])
}

func TestProviderUnavailable(t *testing.T) {
	p, err := New(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = p.VerifyCredentials(context.Background(), "a@b.com", "pw")
	assert.ErrorIs(t, err, session.ErrProviderUnavailable)
}
