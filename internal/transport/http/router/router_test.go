package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/nursery/internal/service/auth"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

type staticVerifier map[string]int64

func (v staticVerifier) Verify(token string) (*auth.Claims, error) {
	id, ok := v[token]
	if !ok {
		return nil, errorbank.Unauthorized("invalid or expired token")
	}
	c := &auth.Claims{Email: "staff@nursery.test"}
	c.Subject = strconv.FormatInt(id, 10)
	return c, nil
}

func TestGroups_GuardPrivateRoutes(t *testing.T) {
	e := echo.New()
	g := NewWithVerifier(e, staticVerifier{"good": 7})
	g.Public.GET("/open", func(c echo.Context) error { return c.String(http.StatusOK, "open") })
	g.Private.GET("/closed", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]int64{"uid": UserID(c)})
	})

	cases := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"public without token", "/api/open", "", http.StatusOK},
		{"private without token", "/api/closed", "", http.StatusUnauthorized},
		{"private wrong scheme", "/api/closed", "Basic good", http.StatusUnauthorized},
		{"private bad token", "/api/closed", "Bearer nope", http.StatusUnauthorized},
		{"private good token", "/api/closed", "Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/closed", nil)
	req.Header.Set(echo.HeaderAuthorization, "bearer good")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body["uid"])
}
