package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillstack/userd/internal/app"
	"github.com/quillstack/userd/internal/auth"
	"github.com/quillstack/userd/internal/observability"
	"github.com/quillstack/userd/internal/shared"
	"github.com/quillstack/userd/internal/users"
	_ "github.com/quillstack/userd/testing"
)

// memStore backs both the auth repository and the users listing in tests.
type memStore struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*auth.User)}
}

func (m *memStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[email]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memStore) FindByEmailOrUsername(ctx context.Context, email, username string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email || user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memStore) Insert(ctx context.Context, user *auth.User) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return nil, shared.ErrDuplicate
		}
	}
	persisted := *user
	persisted.CreatedAt = time.Now()
	persisted.UpdatedAt = persisted.CreatedAt
	m.users[persisted.Email] = &persisted
	copied := persisted
	return &copied, nil
}

func (m *memStore) FindAndActivateByToken(ctx context.Context, token string, now time.Time) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if !user.Active && user.ActivationToken == token && user.ActivationExpires.After(now) {
			user.Active = true
			user.ActivationToken = ""
			user.ActivationExpires = time.Time{}
			copied := *user
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memStore) ListUsers(ctx context.Context) ([]auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []auth.User
	for _, user := range m.users {
		copied := *user
		copied.PasswordHash = ""
		list = append(list, copied)
	}
	return list, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	tokens []string
}

func (n *recordingNotifier) SendActivationEmail(ctx context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tokens = append(n.tokens, token)
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *memStore, *recordingNotifier) {
	t.Helper()

	store := newMemStore()
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer := auth.NewTokenIssuer("secret", time.Hour)

	authService := auth.NewService(store, auth.ServiceConfig{
		Hasher:        auth.NewHasher(bcrypt.MinCost),
		Tokens:        auth.NewTokenGenerator(16),
		Issuer:        issuer,
		Notifier:      notifier,
		Logger:        logger,
		ActivationTTL: time.Hour,
	})

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	usersService := users.NewService(store, redisClient, time.Second, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       &app.Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second},
		AuthHandler:  auth.NewHandler(logger, authService),
		UsersHandler: users.NewHandler(logger, usersService),
		Guard:        auth.RequireToken(issuer),
		Metrics:      observability.NewMetrics(),
	})
	return router, store, notifier
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

var registerForm = map[string]string{
	"email":     "tester@chester.com",
	"password":  "PASSWORD",
	"username":  "testerchester",
	"role":      "guest",
	"firstName": "Chester",
	"lastName":  "Tester",
}

func TestRegistrationActivationLoginFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	// Register.
	res := doJSON(t, router, http.MethodPost, "/auth/register", registerForm, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var registered struct {
		Email           string `json:"email"`
		Username        string `json:"username"`
		Active          bool   `json:"active"`
		ActivationToken string `json:"activationToken"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &registered))
	assert.Equal(t, "tester@chester.com", registered.Email)
	assert.False(t, registered.Active)
	assert.Len(t, registered.ActivationToken, 32)
	assert.NotContains(t, res.Body.String(), "PASSWORD")
	assert.NotContains(t, res.Body.String(), "passwordHash")

	// Duplicate registration conflicts.
	res = doJSON(t, router, http.MethodPost, "/auth/register", registerForm, nil)
	assert.Equal(t, http.StatusConflict, res.Code)

	// Bogus activation token.
	res = doJSON(t, router, http.MethodGet, "/auth/activate/123456789", nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	// Real activation token yields a session token.
	res = doJSON(t, router, http.MethodGet, "/auth/activate/"+registered.ActivationToken, nil, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var activated struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &activated))
	require.NotEmpty(t, activated.Token)

	// Replay is rejected.
	res = doJSON(t, router, http.MethodGet, "/auth/activate/"+registered.ActivationToken, nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	// Login.
	res = doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email":    "tester@chester.com",
		"password": "PASSWORD",
	}, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var loggedIn struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &loggedIn))
	require.NotEmpty(t, loggedIn.Token)

	// Listing requires a bearer token.
	res = doJSON(t, router, http.MethodGet, "/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = doJSON(t, router, http.MethodGet, "/users", nil, map[string]string{
		"Authorization": "Bearer " + loggedIn.Token,
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var listed []struct {
		Email  string `json:"email"`
		Active bool   `json:"active"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "tester@chester.com", listed[0].Email)
	assert.True(t, listed[0].Active)
	assert.NotContains(t, res.Body.String(), "passwordHash")
}

func TestRegisterValidationFailures(t *testing.T) {
	router, _, _ := newTestRouter(t)

	res := doJSON(t, router, http.MethodPost, "/auth/register", map[string]string{
		"email": "not-an-email",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), "Email is not valid")
	assert.Contains(t, res.Body.String(), "Password cannot be blank")
}

func TestLoginValidationFailures(t *testing.T) {
	router, _, _ := newTestRouter(t)

	res := doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email": "some@email.com",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"password": "somepassword",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginUnknownEmailReturns404(t *testing.T) {
	router, _, _ := newTestRouter(t)

	res := doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email":    "none@nowhere.com",
		"password": "PASSWORD",
	}, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestLoginWrongPasswordReturns401(t *testing.T) {
	router, _, _ := newTestRouter(t)

	res := doJSON(t, router, http.MethodPost, "/auth/register", registerForm, nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email":    "tester@chester.com",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestVersionedPrefixAlias(t *testing.T) {
	router, _, _ := newTestRouter(t)

	res := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerForm, nil)
	assert.Equal(t, http.StatusOK, res.Code, res.Body.String())
}

func TestHealthz(t *testing.T) {
	router, _, _ := newTestRouter(t)

	res := doJSON(t, router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"status":"ok"}`, res.Body.String())
}

func TestUsersRejectsForgedToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	forged := auth.NewTokenIssuer("other-secret", time.Hour)
	token, err := forged.Issue(&auth.User{Email: "x@y.z", Username: "x", Role: "guest"})
	require.NoError(t, err)

	res := doJSON(t, router, http.MethodGet, "/users", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), "Invalid or no token supplied")
}
