// Package rest implements session.IdentityProvider against an
// identitytoolkit-style REST API (the kind managed identity services
// expose for email/password accounts). Session-change notification is
// local: the provider fires listeners when its own calls change the
// signed-in account, which mirrors how the hosted SDKs behave.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medhublabs/medhub/pkg/session"
)

// Config options for the REST identity provider.
type Config struct {
	BaseURL    string // e.g. https://identitytoolkit.example.com
	APIKey     string
	HTTPClient *http.Client // defaults to http.DefaultClient
}

// Provider is a REST client implementation of the
// session.IdentityProvider interface.
type Provider struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu        sync.Mutex
	current   *session.Identity
	idToken   string
	listeners map[uint64]func(*session.Identity)
	nextID    uint64
}

// New creates a new REST identity provider.
func New(config Config) (*Provider, error) {
	if config.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Provider{
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		apiKey:    config.APIKey,
		client:    client,
		listeners: make(map[uint64]func(*session.Identity)),
	}, nil
}

type accountResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// VerifyCredentials signs in with email/password and notifies
// listeners on success.
func (p *Provider) VerifyCredentials(ctx context.Context, email, password string) (session.Identity, error) {
	var resp accountResponse
	err := p.post(ctx, "accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return session.Identity{}, &session.ProviderError{Op: "verify_credentials", Err: err}
	}

	ident := p.identityFromResponse(resp)
	p.setCurrent(&ident, resp.IDToken)
	return ident, nil
}

// CreateIdentity registers a new email/password account and notifies
// listeners on success.
func (p *Provider) CreateIdentity(ctx context.Context, email, password string) (session.Identity, error) {
	var resp accountResponse
	err := p.post(ctx, "accounts:signUp", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return session.Identity{}, &session.ProviderError{Op: "create_identity", Err: err}
	}

	ident := p.identityFromResponse(resp)
	p.setCurrent(&ident, resp.IDToken)
	return ident, nil
}

// SetDisplayName updates the display name on the signed-in account.
func (p *Provider) SetDisplayName(ctx context.Context, identityID, name string) error {
	p.mu.Lock()
	token := p.idToken
	p.mu.Unlock()
	if token == "" {
		return &session.ProviderError{Op: "set_display_name", Err: errors.New("no active provider session")}
	}

	var resp accountResponse
	err := p.post(ctx, "accounts:update", map[string]interface{}{
		"idToken":           token,
		"displayName":       name,
		"returnSecureToken": false,
	}, &resp)
	if err != nil {
		return &session.ProviderError{Op: "set_display_name", Err: err}
	}

	p.mu.Lock()
	if p.current != nil && p.current.ID == identityID {
		p.current.DisplayName = name
	}
	p.mu.Unlock()
	return nil
}

// EndSession discards the provider session locally and notifies
// listeners. The hosted API keeps no server-side session for password
// accounts, so there is nothing remote to revoke.
func (p *Provider) EndSession(ctx context.Context) error {
	p.setCurrent(nil, "")
	return nil
}

// SendCredentialReset asks the API to send a password reset message.
func (p *Provider) SendCredentialReset(ctx context.Context, email string) error {
	err := p.post(ctx, "accounts:sendOobCode", map[string]interface{}{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, &accountResponse{})
	if err != nil {
		// EMAIL_NOT_FOUND means a bad pair on sign-in but an unknown
		// address here
		if errors.Is(err, session.ErrInvalidCredentials) {
			return session.ErrUnknownEmail
		}
		return &session.ProviderError{Op: "send_credential_reset", Err: err}
	}
	return nil
}

// OnSessionChange registers fn and fires it once with the current
// state before returning.
func (p *Provider) OnSessionChange(fn func(*session.Identity)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	var current *session.Identity
	if p.current != nil {
		c := *p.current
		current = &c
	}
	p.mu.Unlock()

	fn(current)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// identityFromResponse builds an identity from the response body,
// falling back to ID-token claims for fields the body omits. The
// token is decoded without verification: it came over TLS from the
// issuer itself and is only mined for display defaults here.
func (p *Provider) identityFromResponse(resp accountResponse) session.Identity {
	ident := session.Identity{
		ID:          resp.LocalID,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
	}

	if resp.IDToken == "" || (ident.ID != "" && ident.Email != "" && ident.DisplayName != "") {
		return ident
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(resp.IDToken, claims); err != nil {
		return ident
	}

	if ident.ID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			ident.ID = sub
		}
	}
	if ident.Email == "" {
		if email, ok := claims["email"].(string); ok {
			ident.Email = email
		}
	}
	if ident.DisplayName == "" {
		if name, ok := claims["name"].(string); ok {
			ident.DisplayName = name
		}
	}

	return ident
}

func (p *Provider) setCurrent(ident *session.Identity, idToken string) {
	p.mu.Lock()
	if ident == nil {
		p.current = nil
		p.idToken = ""
	} else {
		c := *ident
		p.current = &c
		p.idToken = idToken
	}
	fns := make([]func(*session.Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		var c *session.Identity
		if ident != nil {
			cc := *ident
			c = &cc
		}
		fn(c)
	}
}

func (p *Provider) post(ctx context.Context, endpoint string, body map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/%s", p.baseURL, endpoint)
	if p.apiKey != "" {
		url = fmt.Sprintf("%s?key=%s", url, p.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("%w: status %d", session.ErrProviderUnavailable, resp.StatusCode)
		}
		return mapAPIError(errResp.Error.Message, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// mapAPIError translates identitytoolkit error codes into the
// enumerated session errors so callers never parse provider strings.
func mapAPIError(message string, status int) error {
	code := message
	if i := strings.IndexByte(code, ' '); i > 0 {
		code = code[:i]
	}

	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return session.ErrInvalidCredentials
	case "EMAIL_EXISTS":
		return session.ErrEmailInUse
	case "WEAK_PASSWORD":
		return session.ErrWeakCredential
	case "INVALID_EMAIL":
		return session.ErrUnknownEmail
	}

	if status >= 500 {
		return fmt.Errorf("%w: %s", session.ErrProviderUnavailable, message)
	}
	return fmt.Errorf("provider rejected request: %s", message)
}
