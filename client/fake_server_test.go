package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "secret123"
	testToken    = "tok-ada"
	slowEmail    = "slow@example.com"
)

var testUser = User{
	ID:        "user-1",
	FullName:  "Ada Lovelace",
	Email:     testEmail,
	CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
}

// fakeAPI serves the auth endpoints and records the Authorization header
// of every request.
type fakeAPI struct {
	*httptest.Server
	release chan struct{}

	mu      sync.Mutex
	headers []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{release: make(chan struct{})}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var form RegisterForm
		_ = json.NewDecoder(r.Body).Decode(&form)
		switch {
		case form.Email == "":
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"message": "Validation failed",
				"errors": []FieldError{
					{Msg: "Please include a valid email", Path: "email", Location: "body"},
				},
			})
		case form.Email == testEmail:
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "User already exists"})
		default:
			writeJSON(w, http.StatusCreated, AuthResponse{
				User:  User{ID: "user-2", FullName: form.FullName, Email: form.Email},
				Token: "tok-new",
			})
		}
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var form LoginForm
		_ = json.NewDecoder(r.Body).Decode(&form)
		if form.Email == slowEmail {
			<-f.release
			writeJSON(w, http.StatusOK, AuthResponse{User: testUser, Token: "tok-slow"})
			return
		}
		if form.Email != testEmail || form.Password != testPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, AuthResponse{User: testUser, Token: testToken})
	})
	mux.HandleFunc("GET /api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized, token failed"})
			return
		}
		writeJSON(w, http.StatusOK, testUser)
	})

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.headers = append(f.headers, r.Header.Get("Authorization"))
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) lastAuthHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.headers) == 0 {
		return ""
	}
	return f.headers[len(f.headers)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
