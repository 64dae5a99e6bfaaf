package estimation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/nursery/internal/document"
	service "github.com/Additional-Code/nursery/internal/service/estimation"
	"github.com/Additional-Code/nursery/internal/store/storetest"
	"github.com/Additional-Code/nursery/internal/transport/http/router"
)

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestEstimationEndpoints(t *testing.T) {
	svc := service.NewService(service.Params{
		Repository: storetest.NewEstimations(),
		Renderer:   document.New(document.Letterhead{Name: "Test Nursery"}),
	})
	e := echo.New()
	api := e.Group(router.BasePath)
	Register(&router.Groups{Public: api, Private: api}, NewHandler(svc))

	rec := do(e, http.MethodPost, "/api/estimations", `{
		"estimateNo": "EST-42",
		"customerName": "Farm Co-op",
		"items": [
			{"plantName": "Teak sapling", "rate": "45", "quantity": 100, "total": "4500"},
			{"plantName": "Neem sapling", "rate": 30, "quantity": 50}
		]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			ID         int64  `json:"id"`
			TotalItems int    `json:"totalItems"`
			GrandTotal string `json:"grandTotal"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Data.TotalItems)
	assert.Equal(t, "6000", body.Data.GrandTotal)

	path := "/api/estimations/" + strconv.FormatInt(body.Data.ID, 10)
	rec = do(e, http.MethodGet, path+"/pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=estimate_EST-42.pdf", rec.Header().Get(echo.HeaderContentDisposition))

	rec = do(e, http.MethodPost, "/api/estimations", `{"customerName":"x","items":[{"plantName":"Teak","rate":"10","quantity":2,"total":"25"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/estimations", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, path, "").Code)
}
