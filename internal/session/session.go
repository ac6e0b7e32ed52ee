// Package session is the client-side half of the auth flow: it talks
// to the backend's user endpoints, persists the issued bearer token,
// and tracks the currently recognized user. Every failure path lands
// in a clean logged-out state; the manager never keeps a token it
// could not verify.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/campuslink/campuslink-be/internal/models/dto"
)

// ErrInvalidCredentials is returned by Login when the server rejects
// the email/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Manager holds at most one token and one resolved identity at a time.
type Manager struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore

	mu      sync.Mutex
	current *dto.UserProfile
}

// NewManager builds a session manager against the given server base
// URL. Pass a nil client to get a default with a 10s timeout.
func NewManager(baseURL string, tokens TokenStore, client *http.Client) *Manager {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Manager{baseURL: baseURL, http: client, tokens: tokens}
}

// Register creates an account and then logs in with the same
// credentials, so a fresh signup lands directly in an authenticated
// session.
func (m *Manager) Register(ctx context.Context, name, email, password, avatarURL string) (dto.UserProfile, error) {
	body := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}
	if avatarURL != "" {
		body["avatar_url"] = avatarURL
	}

	resp, err := m.post(ctx, "/api/users", body, "")
	if err != nil {
		return dto.UserProfile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return dto.UserProfile{}, apiError(resp)
	}

	return m.Login(ctx, email, password)
}

// Login authenticates, persists the issued token, and records the
// returned identity. Nothing is persisted on failure.
func (m *Manager) Login(ctx context.Context, email, password string) (dto.UserProfile, error) {
	resp, err := m.post(ctx, "/api/users/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return dto.UserProfile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return dto.UserProfile{}, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return dto.UserProfile{}, apiError(resp)
	}

	var out dto.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return dto.UserProfile{}, fmt.Errorf("decode login response: %w", err)
	}

	if err := m.tokens.Save(out.Token); err != nil {
		return dto.UserProfile{}, fmt.Errorf("persist token: %w", err)
	}

	m.setCurrent(&out.User)
	return out.User, nil
}

// Logout notifies the server on a best-effort basis, then clears the
// persisted token and in-memory identity unconditionally. The property
// that matters locally is that this device stops presenting the token,
// so a failed server call does not keep the session alive.
func (m *Manager) Logout(ctx context.Context) error {
	token, _ := m.tokens.Load()
	if token != "" {
		if resp, err := m.post(ctx, "/api/users/logout", nil, token); err == nil {
			resp.Body.Close()
		}
	}

	m.setCurrent(nil)
	return m.tokens.Clear()
}

// ResolveCurrentUser rehydrates the session at startup. With no
// persisted token it reports logged-out without touching the network.
// With one, it asks the server who the token belongs to; any rejection
// or transport failure clears the token so an unverifiable credential
// never presents a false logged-in state.
func (m *Manager) ResolveCurrentUser(ctx context.Context) (dto.UserProfile, bool, error) {
	token, err := m.tokens.Load()
	if err != nil {
		return dto.UserProfile{}, false, err
	}
	if token == "" {
		m.setCurrent(nil)
		return dto.UserProfile{}, false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/api/users/me", nil)
	if err != nil {
		return dto.UserProfile{}, false, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := m.http.Do(req)
	if err != nil {
		m.dropSession()
		return dto.UserProfile{}, false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.dropSession()
		return dto.UserProfile{}, false, nil
	}

	var user dto.UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		m.dropSession()
		return dto.UserProfile{}, false, nil
	}

	m.setCurrent(&user)
	return user, true, nil
}

// CurrentUser returns the resolved identity, if any.
func (m *Manager) CurrentUser() (dto.UserProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return dto.UserProfile{}, false
	}
	return *m.current, true
}

// IsAuthenticated reports whether an identity is currently resolved.
// Callers key off this, not off the raw token.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.CurrentUser()
	return ok
}

func (m *Manager) setCurrent(user *dto.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = user
}

func (m *Manager) dropSession() {
	m.setCurrent(nil)
	_ = m.tokens.Clear()
}

func (m *Manager) post(ctx context.Context, path string, body any, token string) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return m.http.Do(req)
}

// apiError extracts the server's {"message": ...} body into an error.
func apiError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		return fmt.Errorf("server: %s (status %d)", body.Message, resp.StatusCode)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
