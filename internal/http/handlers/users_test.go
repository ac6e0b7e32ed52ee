package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslink/campuslink-be/internal/auth"
	"github.com/campuslink/campuslink-be/internal/middleware"
	"github.com/campuslink/campuslink-be/internal/models/dto"
	"github.com/campuslink/campuslink-be/internal/storage/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.NewStore()
	tokens := auth.NewTokenManager("test-secret", "campuslink-test", time.Hour)
	limiter := middleware.NewRateLimiter(1000, 1000)
	handler := NewUserHandler(store, tokens, limiter, zap.NewNop())

	mux := http.NewServeMux()
	handler.Register(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getWithToken(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func register(t *testing.T, baseURL, name, email, password string) dto.RegisterResponse {
	t.Helper()
	resp := postJSON(t, baseURL+"/api/users", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out dto.RegisterResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func login(t *testing.T, baseURL, email, password string) dto.LoginResponse {
	t.Helper()
	resp := postJSON(t, baseURL+"/api/users/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/users", map[string]string{
		"name":     "Ava",
		"email":    "ava@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, strings.ToLower(string(raw)), "password",
		"registration response must not leak any password material")

	var out dto.RegisterResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotZero(t, out.ID)
	assert.Equal(t, "Ava", out.Name)
	assert.Equal(t, "ava@example.com", out.Email)
}

func TestRegister_MissingFields(t *testing.T) {
	ts := newTestServer(t)

	for name, payload := range map[string]map[string]string{
		"no name":        {"email": "a@example.com", "password": "hunter22"},
		"no email":       {"name": "Ava", "password": "hunter22"},
		"no password":    {"name": "Ava", "email": "a@example.com"},
		"short password": {"name": "Ava", "email": "a@example.com", "password": "short"},
		"bad email":      {"name": "Ava", "email": "not-an-email", "password": "hunter22"},
	} {
		t.Run(name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/users", payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)

	register(t, ts.URL, "Ava", "ava@example.com", "hunter22")

	resp := postJSON(t, ts.URL+"/api/users", map[string]string{
		"name":     "Another Ava",
		"email":    "ava@example.com",
		"password": "different8",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ts := newTestServer(t)

	register(t, ts.URL, "Ava", "ava@example.com", "hunter22")

	// Wrong password and unknown email must be indistinguishable.
	var bodies []string
	for _, creds := range []map[string]string{
		{"email": "ava@example.com", "password": "wrongpass"},
		{"email": "nobody@example.com", "password": "hunter22"},
	} {
		resp := postJSON(t, ts.URL+"/api/users/login", creds)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(raw))
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Contains(t, bodies[0], "Invalid credentials")
}

func TestLogin_MissingFields(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/users/login", map[string]string{"email": "ava@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginThenMe(t *testing.T) {
	ts := newTestServer(t)

	created := register(t, ts.URL, "Ava", "ava@example.com", "hunter22")
	loggedIn := login(t, ts.URL, "ava@example.com", "hunter22")

	require.NotEmpty(t, loggedIn.Token)
	assert.Equal(t, created.ID, loggedIn.User.ID)
	assert.NotEmpty(t, loggedIn.User.AvatarURL, "avatar defaults to a placeholder")

	resp := getWithToken(t, ts.URL+"/api/users/me", loggedIn.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me dto.UserProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, created.ID, me.ID)
	assert.Equal(t, "Ava", me.Name)
	assert.Equal(t, "ava@example.com", me.Email)
}

func TestMe_Unauthorized(t *testing.T) {
	ts := newTestServer(t)

	resp := getWithToken(t, ts.URL+"/api/users/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = getWithToken(t, ts.URL+"/api/users/me", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetUserByID(t *testing.T) {
	ts := newTestServer(t)

	register(t, ts.URL, "Ava", "ava@example.com", "hunter22")
	other := register(t, ts.URL, "Ben", "ben@example.com", "hunter22")
	token := login(t, ts.URL, "ava@example.com", "hunter22").Token

	resp := getWithToken(t, fmt.Sprintf("%s/api/users/%d", ts.URL, other.ID), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile dto.UserProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, "Ben", profile.Name)

	resp = getWithToken(t, ts.URL+"/api/users/9999", token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = getWithToken(t, ts.URL+"/api/users/not-a-number", token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getWithToken(t, fmt.Sprintf("%s/api/users/%d", ts.URL, other.ID), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/users/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
