package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
)

// State is the authentication state of a Session.
type State int

const (
	StateUnauthenticated State = iota
	StateLoading
	StateAuthenticated
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	msgRegistrationFailed   = "Registration failed"
	msgLoginFailed          = "Login failed"
	msgAuthenticationFailed = "Authentication failed"
	msgSuperseded           = "Request superseded"
	msgNoToken              = "No stored token"
)

// Session owns the client's authentication state and the token attached
// to outbound requests. All methods are safe for concurrent use; when
// transitions overlap the latest one wins and earlier results are
// discarded.
type Session struct {
	mu     sync.Mutex
	api    *APIClient
	store  TokenStore
	state  State
	user   *User
	token  string
	errMsg string
	gen    uint64
}

// NewSession creates a Session bound to baseURL. The persisted token, if
// any, is loaded but not verified; call LoadUser to resolve it.
func NewSession(baseURL string, httpClient *http.Client, store TokenStore) (*Session, error) {
	if store == nil {
		store = NewMemoryTokenStore("")
	}
	token, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	s := &Session{
		store: store,
		state: StateUnauthenticated,
		token: token,
	}
	s.api = NewAPIClient(baseURL, httpClient, s.Token)
	return s, nil
}

// API returns the client whose requests carry the session token.
func (s *Session) API() *APIClient {
	return s.api
}

// Tasks is shorthand for API().Tasks().
func (s *Session) Tasks() *TaskClient {
	return s.api.Tasks()
}

// Register creates an account and signs in.
func (s *Session) Register(ctx context.Context, form RegisterForm) *Result {
	gen := s.begin("")
	resp, err := s.api.Register(ctx, form)
	return s.finishAuth(gen, resp, err, msgRegistrationFailed)
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, form LoginForm) *Result {
	gen := s.begin("")
	resp, err := s.api.Login(ctx, form)
	return s.finishAuth(gen, resp, err, msgLoginFailed)
}

// LoadUser resolves the persisted token into a user. Without a persisted
// token it reports failure and leaves the state unchanged. A rejected
// token is deleted from the store.
func (s *Session) LoadUser(ctx context.Context) *Result {
	token, err := s.store.Load()
	if err != nil {
		log.Printf("[client] Failed to load token: %v", err)
		return &Result{Error: msgNoToken}
	}
	if token == "" {
		return &Result{Error: msgNoToken}
	}

	gen := s.begin(token)
	u, err := s.api.Profile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return &Result{Error: msgSuperseded}
	}

	if err != nil {
		res := failure(err, msgAuthenticationFailed)
		s.state = StateErrored
		s.errMsg = res.Error
		s.user = nil
		s.token = ""
		if derr := s.store.Delete(); derr != nil {
			log.Printf("[client] Failed to delete rejected token: %v", derr)
		}
		return res
	}

	s.state = StateAuthenticated
	s.user = u
	s.errMsg = ""
	return &Result{Success: true}
}

// Logout clears the session and the persisted token. It supersedes any
// transition in flight.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.state = StateUnauthenticated
	s.user = nil
	s.token = ""
	s.errMsg = ""

	if err := s.store.Delete(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// ClearError moves an errored session back to unauthenticated.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateErrored {
		s.state = StateUnauthenticated
		s.errMsg = ""
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the token attached to outbound requests.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Error returns the message of an errored session.
func (s *Session) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// IsAuthenticated reports whether the session holds a resolved user.
func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// begin enters Loading and returns the generation of this transition.
// A non-empty token replaces the in-memory token.
func (s *Session) begin(token string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = StateLoading
	s.errMsg = ""
	if token != "" {
		s.token = token
	}
	return s.gen
}

func (s *Session) finishAuth(gen uint64, resp *AuthResponse, err error, fallback string) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return &Result{Error: msgSuperseded}
	}

	if err != nil {
		res := failure(err, fallback)
		s.state = StateErrored
		s.errMsg = res.Error
		s.user = nil
		s.token = ""
		return res
	}

	if serr := s.store.Save(resp.Token); serr != nil {
		log.Printf("[client] Failed to persist token: %v", serr)
	}
	u := resp.User
	s.state = StateAuthenticated
	s.user = &u
	s.token = resp.Token
	s.errMsg = ""
	return &Result{Success: true}
}

// failure builds a Result from a failed call, using the server's message
// when it sent one.
func failure(err error, fallback string) *Result {
	res := &Result{Error: fallback}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			res.Error = apiErr.Message
		}
		res.Errors = apiErr.Errors
	}
	return res
}
