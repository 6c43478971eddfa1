package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/finance-tracker/internal/model"
)

// CurrentUser returns the user attached by Gate.
func CurrentUser(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(ContextUser).(*model.User)
	return u, ok && u != nil
}

// currentUserID is the key fragment used by the rate limiter and response
// cache; "anon" when no session is attached.
func currentUserID(c echo.Context) string {
	switch v := c.Get(ContextUserID).(type) {
	case uint64:
		if v != 0 {
			return strconv.FormatUint(v, 10)
		}
	case string:
		if v != "" {
			return v
		}
	}
	return "anon"
}
