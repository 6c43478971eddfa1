package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/middleware"
	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/service"
)

func newCtx(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation with field", &service.ValidationError{Field: "email", Message: "Please enter a valid email address"},
			http.StatusBadRequest, `{"error":"Please enter a valid email address","field":"email"}`},
		{"validation without field", &service.ValidationError{Message: "All fields are required"},
			http.StatusBadRequest, `{"error":"All fields are required"}`},
		{"not found", fmt.Errorf("load: %w", repository.ErrNotFound),
			http.StatusNotFound, `{"error":"Not found"}`},
		{"credentials", service.ErrInvalidCredentials,
			http.StatusUnauthorized, `{"error":"Invalid credentials"}`},
		{"self deactivate", service.ErrSelfDeactivate,
			http.StatusBadRequest, `{"error":"Cannot deactivate your own account"}`},
		{"wrapped cap", fmt.Errorf("signup: %w", service.ErrMaxUsers),
			http.StatusBadRequest, `{"error":"Maximum user limit reached"}`},
		{"empty template", service.ErrEmptyTemplate,
			http.StatusBadRequest, `{"error":"No template items found"}`},
		{"unknown", errors.New("connection reset"),
			http.StatusInternalServerError, `{"error":"Failed to do the thing"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newCtx(http.MethodGet, "/")
			require.NoError(t, respondError(c, zap.NewNop(), tc.err, "Failed to do the thing"))
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestRespondErrorDoesNotLeakInternals(t *testing.T) {
	c, rec := newCtx(http.MethodGet, "/")
	require.NoError(t, respondError(c, zap.NewNop(), errors.New("dial tcp 10.0.0.3:3306: refused"), "Failed to fetch expenses"))
	assert.NotContains(t, rec.Body.String(), "3306")
}

func TestGetUserID(t *testing.T) {
	cases := []struct {
		val  any
		want uint64
		ok   bool
	}{
		{uint64(7), 7, true},
		{int64(8), 8, true},
		{"9", 9, true},
		{uint64(0), 0, false},
		{int64(-1), 0, false},
		{"abc", 0, false},
		{nil, 0, false},
		{3.0, 0, false},
	}
	for _, tc := range cases {
		c, _ := newCtx(http.MethodGet, "/")
		if tc.val != nil {
			c.Set(middleware.ContextUserID, tc.val)
		}
		got, err := getUserID(c)
		if !tc.ok {
			assert.Error(t, err, "%v", tc.val)
			continue
		}
		require.NoError(t, err, "%v", tc.val)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseID(t *testing.T) {
	c, _ := newCtx(http.MethodGet, "/")
	c.SetParamNames("id")

	c.SetParamValues("42")
	id, ok := parseID(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"0", "-3", "x", ""} {
		c.SetParamValues(bad)
		_, ok := parseID(c)
		assert.False(t, ok, bad)
	}
}

func TestTrendStart(t *testing.T) {
	now := time.Date(2024, time.March, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03", trendStart(now, 1))
	assert.Equal(t, "2023-10", trendStart(now, 6))
	assert.Equal(t, "2022-04", trendStart(now, 24))
}

func TestTemplateNormalize(t *testing.T) {
	sip := "SIP"
	exp := &TemplateHandler{Kind: model.KindExpense}
	items, _, ok := exp.normalize([]model.TemplateItem{
		{Name: "  Rent ", Amount: 1000, Category: " housing "},
		{ID: "keep-me", Name: "Gym", Amount: 30, InvestmentType: &sip},
	})
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "Rent", items[0].Name)
	assert.Equal(t, "housing", items[0].Category)
	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, "keep-me", items[1].ID)
	assert.Nil(t, items[1].InvestmentType)

	inv := &TemplateHandler{Kind: model.KindInvestment}
	items, _, ok = inv.normalize([]model.TemplateItem{{Name: "Index", InvestmentType: &sip}})
	require.True(t, ok)
	require.NotNil(t, items[0].InvestmentType)
	assert.Equal(t, "SIP", *items[0].InvestmentType)

	_, msg, ok := exp.normalize([]model.TemplateItem{{Name: "  "}})
	assert.False(t, ok)
	assert.Equal(t, "Every template item needs a name", msg)

	_, msg, ok = exp.normalize([]model.TemplateItem{{Name: "Refund", Amount: -1}})
	assert.False(t, ok)
	assert.Equal(t, "Amount must not be negative", msg)
}

func TestEntryRequestValidation(t *testing.T) {
	amt := func(v float64) *float64 { return &v }
	cases := []struct {
		req  entryReq
		want string
	}{
		{entryReq{Name: "Rent", Amount: amt(10), Month: "2024-03"}, ""},
		{entryReq{Name: "Rent", Amount: amt(0), Month: "2024-03"}, ""},
		{entryReq{Name: " ", Amount: amt(10), Month: "2024-03"}, "Name is required"},
		{entryReq{Name: "Rent", Month: "2024-03"}, "Amount is required"},
		{entryReq{Name: "Rent", Amount: amt(-1), Month: "2024-03"}, "Amount must not be negative"},
		{entryReq{Name: "Rent", Amount: amt(10), Month: "2024-13"}, service.ErrInvalidMonth.Error()},
	}
	for _, tc := range cases {
		msg, ok := tc.req.validate()
		assert.Equal(t, tc.want == "", ok, tc.want)
		assert.Equal(t, tc.want, msg)
	}
}

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) CountAll(context.Context) (int, error) { return f.n, f.err }

func keepAlive(h *CronHandler, auth string) *httptest.ResponseRecorder {
	c, rec := newCtx(http.MethodGet, "/api/cron/keep-alive")
	if auth != "" {
		c.Request().Header.Set(echo.HeaderAuthorization, auth)
	}
	_ = h.KeepAlive(c)
	return rec
}

func TestKeepAlive(t *testing.T) {
	h := NewCronHandler(fakeCounter{n: 3}, "s3cret", nil)

	assert.Equal(t, http.StatusUnauthorized, keepAlive(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, keepAlive(h, "s3cret").Code)
	assert.Equal(t, http.StatusUnauthorized, keepAlive(h, "Bearer s3cre").Code)

	rec := keepAlive(h, "Bearer s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userCount":3`)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"message":"Database keep-alive successful"`)
}

func TestKeepAliveWithoutSecretIsClosed(t *testing.T) {
	h := NewCronHandler(fakeCounter{n: 3}, "", nil)
	assert.Equal(t, http.StatusUnauthorized, keepAlive(h, "Bearer ").Code)
}

func TestKeepAliveStoreFailure(t *testing.T) {
	h := NewCronHandler(fakeCounter{err: errors.New("gone")}, "s3cret", nil)
	rec := keepAlive(h, "Bearer s3cret")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"Database query failed"`)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestReorderRequestKeys(t *testing.T) {
	_, ok := reorderReq{}.updates()
	assert.False(t, ok)

	u, ok := reorderReq{Expenses: []model.OrderUpdate{{ID: 1, DisplayOrder: 2}}}.updates()
	assert.True(t, ok)
	assert.Len(t, u, 1)

	u, ok = reorderReq{Items: []model.OrderUpdate{}}.updates()
	assert.True(t, ok)
	assert.Empty(t, u)
}
