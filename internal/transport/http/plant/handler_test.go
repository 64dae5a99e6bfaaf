package plant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service "github.com/Additional-Code/nursery/internal/service/plant"
	"github.com/Additional-Code/nursery/internal/store/storetest"
	"github.com/Additional-Code/nursery/internal/transport/http/router"
	"github.com/Additional-Code/nursery/internal/txretry"
)

func setup(t *testing.T) (*echo.Echo, *storetest.Store) {
	t.Helper()
	st := storetest.New()
	svc := service.NewService(service.Params{
		Scope:   st,
		Plants:  st.PlantReader(),
		Retrier: txretry.New(3, time.Millisecond, zap.NewNop()),
		Logger:  zap.NewNop(),
	})
	e := echo.New()
	api := e.Group(router.BasePath)
	Register(&router.Groups{Public: api, Private: api}, NewHandler(svc))
	return e, st
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPlantCRUD(t *testing.T) {
	e, st := setup(t)

	rec := do(e, http.MethodPost, "/api/plants", `{"name":"Areca Palm","price":"349.00","stock":12,"light":"Indirect"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			ID     int64  `json:"id"`
			Name   string `json:"name"`
			Stock  int    `json:"stock"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	id := body.Data.ID
	assert.Equal(t, "Active", body.Data.Status)
	assert.Equal(t, 12, st.Stock(id))

	path := "/api/plants/" + strconv.FormatInt(id, 10)
	rec = do(e, http.MethodPut, path, `{"stock":20}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 20, st.Stock(id))

	rec = do(e, http.MethodGet, path, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Areca Palm", body.Data.Name)

	rec = do(e, http.MethodGet, "/api/plants", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, st.Stock(id))

	rec = do(e, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlantValidation(t *testing.T) {
	e, _ := setup(t)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/plants", `{"name":"Fern"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/plants", `{"name":"Fern","price":10,"stock":-1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/api/plants", `{"price":10}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, "/api/plants/0", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPut, "/api/plants/42", `{"stock":1}`).Code)
}
