package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pulverlogic/newsboard/internal/models"
)

func writeUsers(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRegistry_Authenticate(t *testing.T) {
	hashed, err := HashPassword("s3cret")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "users.json")
	writeUsers(t, path, `{
		"pulver": {"password": "`+hashed+`", "role": "admin"},
		"gabe":   {"password": "plain", "role": "student"},
		"ana":    {"password": "pw", "role": "student"}
	}`)

	r, err := LoadRegistry(path)
	require.NoError(t, err)

	u, err := r.Authenticate("pulver", "s3cret")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "pulver", u.Username)

	u, err = r.Authenticate("gabe", "plain")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, u.Role)

	_, err = r.Authenticate("gabe", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = r.Authenticate("nobody", "plain")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, []string{"ana", "gabe"}, r.Scholars())
}

func TestRegistry_RejectsBadRole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	writeUsers(t, path, `{"x": {"password": "p", "role": "owner"}}`)

	_, err := LoadRegistry(path)
	assert.Error(t, err)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRegistry_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	writeUsers(t, path, `{"gabe": {"password": "one", "role": "student"}}`)

	r, err := LoadRegistry(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Watch(ctx))

	writeUsers(t, path, `{"gabe": {"password": "two", "role": "student"}, "ana": {"password": "x", "role": "student"}}`)

	assert.Eventually(t, func() bool {
		_, err := r.Authenticate("gabe", "two")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"ana", "gabe"}, r.Scholars())

	// a broken edit keeps the last good users
	writeUsers(t, path, `{not json`)
	time.Sleep(200 * time.Millisecond)
	_, err = r.Authenticate("gabe", "two")
	assert.NoError(t, err)
}

func TestSessions(t *testing.T) {
	s, err := NewSessions("0123456789abcdef0123456789abcdef", 3600, false)
	require.NoError(t, err)

	_, err = NewSessions("short", 0, false)
	assert.Error(t, err)

	withCookies := func(rec *httptest.ResponseRecorder) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
		return req
	}

	anon := s.Identity(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, anon.LoggedIn())
	assert.Equal(t, models.RolePublic, anon.Role)

	rec := httptest.NewRecorder()
	require.NoError(t, s.Login(rec, httptest.NewRequest(http.MethodPost, "/login", nil), models.User{Username: "pulver", Role: models.RoleAdmin}))

	id := s.Identity(withCookies(rec))
	assert.True(t, id.IsAdmin())
	assert.Equal(t, "pulver", id.Scholar())

	rec2 := httptest.NewRecorder()
	require.NoError(t, s.Impersonate(rec2, withCookies(rec), "gabe"))
	id = s.Identity(withCookies(rec2))
	assert.Equal(t, "gabe", id.Scholar())
	assert.Equal(t, "pulver", id.Username)

	rec3 := httptest.NewRecorder()
	require.NoError(t, s.Logout(rec3, withCookies(rec2)))
	assert.False(t, s.Identity(withCookies(rec3)).LoggedIn())

	student := httptest.NewRecorder()
	require.NoError(t, s.Login(student, httptest.NewRequest(http.MethodPost, "/login", nil), models.User{Username: "gabe", Role: models.RoleStudent}))
	assert.Error(t, s.Impersonate(httptest.NewRecorder(), withCookies(student), "ana"))
}

func setupRedis(t *testing.T) *TokenManager {
	if testing.Short() {
		t.Skip("redis container tests are skipped in -short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	tm, err := ConnectTokenManager(ctx, "redis://"+endpoint+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { tm.Close() })
	return tm
}

func TestTokenManager(t *testing.T) {
	tm := setupRedis(t)
	ctx := context.Background()
	gabe := models.User{Username: "gabe", Role: models.RoleStudent}

	info, created, err := tm.FetchOrCreate(ctx, gabe)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Regexp(t, `^sk-pulver-[0-9a-f]{24}$`, info.Token)
	assert.Equal(t, 0, info.RequestCount)

	again, created, err := tm.FetchOrCreate(ctx, gabe)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, info.Token, again.Token)

	got, err := tm.ValidateHeader(ctx, "Bearer "+info.Token)
	require.NoError(t, err)
	assert.Equal(t, "gabe", got.Username)
	assert.Equal(t, models.RoleStudent, got.Role)
	assert.Equal(t, 1, got.RequestCount)

	_, err = tm.ValidateHeader(ctx, info.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = tm.Validate(ctx, "sk-pulver-nope")
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, tm.Revoke(ctx, "gabe"))
	_, err = tm.Validate(ctx, info.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NoError(t, tm.Revoke(ctx, "gabe"))
}

func TestConnectTokenManager_BadURL(t *testing.T) {
	_, err := ConnectTokenManager(context.Background(), "not-a-url")
	assert.Error(t, err)
}
