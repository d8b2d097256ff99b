package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apexcarousel/pkg/models"
)

type fakeAPI struct {
	srv      *httptest.Server
	lastAuth string
	lastBody map[string]any
	logouts  int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"user":{"id":"u1","email":"` + body["email"] + `"},"token":"tok-1","expires_at":"2030-01-01T00:00:00Z"}`))
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.logouts++
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/generate-carousel", func(w http.ResponseWriter, r *http.Request) {
		f.lastBody = nil
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		_, _ = w.Write([]byte(`{"success":true,"content":{"slides":[{"slide_number":1,"title":"T","content":"C"}],"caption":"cap","pinned_comment":"pin","hooks":["h"]}}`))
	})
	mux.HandleFunc("POST /api/fetch-url", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"text":"fetched body","title":"Page","url":"https://example.com"}`))
	})
	mux.HandleFunc("POST /users/generations", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"g1"}`))
	})
	mux.HandleFunc("GET /users/generations", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"page":1,"per_page":20,"total_items":1,"total_pages":1,"items":[{"id":"g1","style":"koe","input_text":"hello world","created":"2026-01-02T03:04:05Z"}]}`))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func runCLI(t *testing.T, api *fakeAPI, tokenPath string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--api", api.srv.URL, "--token-file", tokenPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestLoginStoresTokenAndLogoutClearsIt(t *testing.T) {
	api := newFakeAPI(t)
	tokenPath := filepath.Join(t.TempDir(), "nested", "token.json")

	out, err := runCLI(t, api, tokenPath, "auth", "login", "--email", "a@b.co", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as a@b.co")

	tok, err := readToken(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	info, err := os.Stat(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = runCLI(t, api, tokenPath, "auth", "logout")
	require.NoError(t, err)
	assert.Equal(t, 1, api.logouts)
	_, err = os.Stat(tokenPath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoginErrorCarriesServerMessage(t *testing.T) {
	api := newFakeAPI(t)
	_, err := runCLI(t, api, filepath.Join(t.TempDir(), "token.json"), "auth", "login", "--email", "a@b.co", "--password", "nope")

	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid credentials", apiErr.Message)
}

func TestGenerateFromText(t *testing.T) {
	api := newFakeAPI(t)
	out, err := runCLI(t, api, filepath.Join(t.TempDir(), "token.json"), "generate", "--style", "koe", "--text", "my notes")
	require.NoError(t, err)

	assert.Equal(t, "my notes", api.lastBody["input_text"])
	assert.Equal(t, "koe", api.lastBody["style"])

	var content models.CarouselContent
	require.NoError(t, json.Unmarshal([]byte(out), &content))
	assert.Equal(t, "cap", content.Caption)
	require.Len(t, content.Slides, 1)
}

func TestGenerateFromURLUsesFetchedText(t *testing.T) {
	api := newFakeAPI(t)
	_, err := runCLI(t, api, filepath.Join(t.TempDir(), "token.json"), "generate", "--url", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "fetched body", api.lastBody["input_text"])
}

func TestGenerateSaveRequiresLogin(t *testing.T) {
	api := newFakeAPI(t)
	_, err := runCLI(t, api, filepath.Join(t.TempDir(), "token.json"), "generate", "--text", "x", "--save")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestGenerateSaveSendsToken(t *testing.T) {
	api := newFakeAPI(t)
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, saveToken(tokenPath, tokenData{Token: "tok-9"}))

	_, err := runCLI(t, api, tokenPath, "generate", "--text", "x", "--save")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-9", api.lastAuth)
}

func TestGenerateInputFlagsAreExclusive(t *testing.T) {
	api := newFakeAPI(t)
	_, err := runCLI(t, api, filepath.Join(t.TempDir(), "token.json"), "generate", "--text", "x", "--url", "https://example.com")
	require.Error(t, err)

	_, err = runCLI(t, api, filepath.Join(t.TempDir(), "token.json"), "generate")
	require.Error(t, err)
}

func TestHistoryList(t *testing.T) {
	api := newFakeAPI(t)
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, saveToken(tokenPath, tokenData{Token: "tok-2"}))

	out, err := runCLI(t, api, tokenPath, "history", "list")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-2", api.lastAuth)
	assert.Contains(t, out, "g1")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "page 1/1, 1 total")
}

func TestWebsocketURL(t *testing.T) {
	u, err := websocketURL("https://api.example.com:8443/base", "/ws")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.com:8443/ws", u)

	u, err = websocketURL("http://localhost:8080", "/ws")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws", u)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n  b", 10))
	assert.Equal(t, "abcd…", preview("abcdefgh", 5))
}
