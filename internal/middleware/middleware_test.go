package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/iliyamo/finance-tracker/internal/config"
	"github.com/iliyamo/finance-tracker/internal/database"
	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/utils"
)

type GateSuite struct {
	suite.Suite
	ctx    context.Context
	users  *repository.CachedUserRepo
	tokens *utils.TokenIssuer
	now    time.Time
	e      *echo.Echo
	cfg    GateConfig
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := database.OpenSQLite(":memory:")
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(s.ctx, db, database.DriverSQLite))
	s.T().Cleanup(func() { db.Close() })

	s.users = repository.NewCachedUserRepo(repository.NewUserRepo(db), nil, 0, nil)
	s.tokens, err = utils.NewTokenIssuer("gate-secret")
	s.Require().NoError(err)
	s.now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	s.cfg = GateConfig{
		PublicPrefixes: config.DefaultPublicPrefixes,
		LoginPath:      "/login",
		Now:            func() time.Time { return s.now },
	}
	s.build()
}

func (s *GateSuite) build() {
	s.e = echo.New()
	s.e.Use(Gate(s.cfg, s.tokens, s.users, nil))
	whoami := func(c echo.Context) error {
		u, ok := CurrentUser(c)
		if !ok {
			return c.String(http.StatusTeapot, "no user")
		}
		return c.String(http.StatusOK, u.Username+":"+currentUserID(c))
	}
	s.e.GET("/api/expenses", whoami)
	s.e.GET("/dashboard", whoami)
	s.e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	s.e.POST("/api/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	admin := s.e.Group("/api/admin", RequireAdmin(s.users, nil))
	admin.GET("/users", whoami)
}

func (s *GateSuite) user(name, role, status string) *model.User {
	u := &model.User{Username: name, Email: name + "@example.com", PasswordHash: "x", Role: role, Status: status}
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func (s *GateSuite) token(u *model.User) string {
	tok, _, err := s.tokens.Issue(u.ID, u.Username, u.Role)
	s.Require().NoError(err)
	return tok
}

func (s *GateSuite) do(method, path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *GateSuite) assertUnauthenticatedAPI(rec *httptest.ResponseRecorder) {
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.JSONEq(`{"error":"Authentication required"}`, rec.Body.String())
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	s.True(cleared, "session cookie should be cleared")
}

func (s *GateSuite) TestMissingCookie() {
	s.assertUnauthenticatedAPI(s.do(http.MethodGet, "/api/expenses", ""))

	rec := s.do(http.MethodGet, "/dashboard", "")
	s.Equal(http.StatusFound, rec.Code)
	s.Equal("/login", rec.Header().Get(echo.HeaderLocation))
}

func (s *GateSuite) TestPublicPrefixesBypassGate() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/healthz", "").Code)
	s.Equal(http.StatusOK, s.do(http.MethodPost, "/api/auth/login", "garbage").Code)
}

func (s *GateSuite) TestValidSession() {
	u := s.user("alice", model.RoleUser, model.StatusActive)
	rec := s.do(http.MethodGet, "/api/expenses", s.token(u))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("alice:1", rec.Body.String())
}

func (s *GateSuite) TestRejectedSessions() {
	u := s.user("alice", model.RoleUser, model.StatusActive)
	tok := s.token(u)

	s.assertUnauthenticatedAPI(s.do(http.MethodGet, "/api/expenses", tok+"x"))
	s.assertUnauthenticatedAPI(s.do(http.MethodGet, "/api/expenses", "not-a-token"))

	foreign, err := utils.NewTokenIssuer("other-secret")
	s.Require().NoError(err)
	ftok, _, err := foreign.Issue(u.ID, u.Username, u.Role)
	s.Require().NoError(err)
	s.assertUnauthenticatedAPI(s.do(http.MethodGet, "/api/expenses", ftok))

	s.Require().NoError(s.users.UpdateStatus(s.ctx, u.ID, model.StatusInactive))
	s.assertUnauthenticatedAPI(s.do(http.MethodGet, "/api/expenses", tok))

	s.Require().NoError(s.users.Delete(s.ctx, u.ID))
	s.assertUnauthenticatedAPI(s.do(http.MethodGet, "/api/expenses", tok))
}

func (s *GateSuite) TestLegacyTokenDisabledByDefault() {
	s.user("owner", model.RoleAdmin, model.StatusActive)
	legacy := utils.EncodeLegacyToken("owner", s.now.Add(-time.Hour))
	s.assertUnauthenticatedAPI(s.do(http.MethodGet, "/api/expenses", legacy))
}

func (s *GateSuite) TestLegacyTokenForConfiguredAdmin() {
	s.cfg.LegacyUsername = "owner"
	s.build()
	s.user("owner", model.RoleAdmin, model.StatusActive)
	s.user("plain", model.RoleUser, model.StatusActive)

	rec := s.do(http.MethodGet, "/api/expenses", utils.EncodeLegacyToken("owner", s.now.Add(-time.Hour)))
	s.Equal(http.StatusOK, rec.Code)
	s.True(strings.HasPrefix(rec.Body.String(), "owner:"))

	s.assertUnauthenticatedAPI(s.do(http.MethodGet, "/api/expenses", utils.EncodeLegacyToken("owner", s.now.Add(-25*time.Hour))))
	s.assertUnauthenticatedAPI(s.do(http.MethodGet, "/api/expenses", utils.EncodeLegacyToken("owner", s.now.Add(time.Hour))))
	s.assertUnauthenticatedAPI(s.do(http.MethodGet, "/api/expenses", utils.EncodeLegacyToken("plain", s.now.Add(-time.Hour))))
}

func (s *GateSuite) TestLegacyTokenRequiresAdminRole() {
	s.cfg.LegacyUsername = "plain"
	s.build()
	s.user("plain", model.RoleUser, model.StatusActive)
	s.assertUnauthenticatedAPI(s.do(http.MethodGet, "/api/expenses", utils.EncodeLegacyToken("plain", s.now.Add(-time.Hour))))
}

func (s *GateSuite) TestRequireAdmin() {
	admin := s.user("root", model.RoleAdmin, model.StatusActive)
	plain := s.user("alice", model.RoleUser, model.StatusActive)

	rec := s.do(http.MethodGet, "/api/admin/users", s.token(plain))
	s.Equal(http.StatusForbidden, rec.Code)
	s.JSONEq(`{"error":"Admin access required"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/admin/users", s.token(admin))
	s.Equal(http.StatusOK, rec.Code)

	s.assertUnauthenticatedAPI(s.do(http.MethodGet, "/api/admin/users", ""))
}

func TestSessionCookieAttributes(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), rec)

	SetSessionCookie(c, "tok", true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, CookieName, ck.Name)
	assert.Equal(t, "tok", ck.Value)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, 86400, ck.MaxAge)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/auth/login")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "rl:ip:10.0.0.7:route:POST /api/auth/login", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, c))

	c.Set(ContextUserID, uint64(42))
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, c))
}

func TestDisabledLimiterAndCachePassThrough(t *testing.T) {
	called := 0
	h := func(echo.Context) error { called++; return nil }

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/trends", nil), httptest.NewRecorder())

	require.NoError(t, NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil)(h)(c))
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil, nil)
	require.NoError(t, rc.Middleware()(h)(c))
	rc.ForgetUser(context.Background(), 1)

	var nilCache *ResponseCache
	nilCache.ForgetUser(context.Background(), 1)

	assert.Equal(t, 2, called)
}

func TestCacheKeyIsUserScoped(t *testing.T) {
	e := echo.New()
	rc := NewResponseCache(config.CacheConfig{Prefix: "ftcache", KeyStrategy: "user_route_query"}, nil, nil)

	keyFor := func(uid uint64, target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/api/trends")
		c.Set(ContextUserID, uid)
		return rc.key(c)
	}

	a := keyFor(1, "/api/trends?months=6")
	assert.True(t, strings.HasPrefix(a, "ftcache:user:1:"))
	assert.NotEqual(t, a, keyFor(2, "/api/trends?months=6"))
	assert.NotEqual(t, a, keyFor(1, "/api/trends?months=12"))
	assert.Equal(t, a, keyFor(1, "/api/trends?months=6"))
}

func TestCacheKeyIsUserScopedForEveryStrategy(t *testing.T) {
	e := echo.New()
	keyFor := func(rc *ResponseCache, uid uint64) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/trends?months=6", nil), httptest.NewRecorder())
		c.SetPath("/api/trends")
		c.Set(ContextUserID, uid)
		return rc.key(c)
	}

	for _, strategy := range []string{"", "route", "method_route", "route_query", "user_route", "user_method_route", "user_route_query"} {
		rc := NewResponseCache(config.CacheConfig{Prefix: "ftcache", KeyStrategy: strategy}, nil, nil)
		a, b := keyFor(rc, 1), keyFor(rc, 2)
		assert.NotEqual(t, a, b, strategy)
		// ForgetUser drops keys by this prefix
		assert.True(t, strings.HasPrefix(a, rc.userPrefix("1")), strategy)
		assert.True(t, strings.HasPrefix(b, rc.userPrefix("2")), strategy)
	}
}

func TestPayloadEncoding(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0, 0})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok)
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("defg"))
	assert.Equal(t, "abcd", cw.buf.String())
	assert.Equal(t, int64(7), cw.size)
	assert.Equal(t, "abcdefg", rec.Body.String())
}
