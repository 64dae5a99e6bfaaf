package order

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

	"github.com/Additional-Code/nursery/internal/config"
	"github.com/Additional-Code/nursery/internal/document"
	service "github.com/Additional-Code/nursery/internal/service/order"
	"github.com/Additional-Code/nursery/internal/store/storetest"
	"github.com/Additional-Code/nursery/internal/transport/http/router"
	"github.com/Additional-Code/nursery/internal/txretry"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Kind    string         `json:"kind"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func setup(t *testing.T) (*echo.Echo, *storetest.Store) {
	t.Helper()
	st := storetest.New()

	var cfg config.Config
	cfg.Business.BaseURL = "/api"

	svc := service.NewService(service.Params{
		Scope:    st,
		Orders:   st.OrderReader(),
		Retrier:  txretry.New(3, time.Millisecond, zap.NewNop()),
		Config:   cfg,
		Logger:   zap.NewNop(),
		Renderer: document.New(document.Letterhead{Name: "Test Nursery"}),
	})

	e := echo.New()
	api := e.Group(router.BasePath)
	Register(&router.Groups{Public: api, Private: api}, NewHandler(svc))
	return e, st
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreateGetInvoiceDelete(t *testing.T) {
	e, st := setup(t)
	rose := st.SeedPlant("Rose", "50", 10)

	rec := do(e, http.MethodPost, "/api/orders", `{
		"orderNo": "ORD-100",
		"customerName": "Meera",
		"items": [{"plantId": `+itoa(rose.ID)+`, "quantity": 4}],
		"status": "paid"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID         int64  `json:"id"`
		OrderNo    string `json:"orderNo"`
		Status     string `json:"status"`
		InvoiceURL string `json:"invoiceUrl"`
		Items      []struct {
			PlantName string `json:"plantName"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, "ORD-100", created.OrderNo)
	assert.Equal(t, "Paid", created.Status)
	assert.Equal(t, "/api/orders/"+itoa(created.ID)+"/invoice", created.InvoiceURL)
	require.Len(t, created.Items, 1)
	assert.Equal(t, "Rose", created.Items[0].PlantName)
	assert.Equal(t, 6, st.Stock(rose.ID))

	rec = do(e, http.MethodGet, "/api/orders/"+itoa(created.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/orders/"+itoa(created.ID)+"/invoice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "attachment; filename=invoice_ORD-100.pdf", rec.Header().Get(echo.HeaderContentDisposition))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = do(e, http.MethodGet, "/api/orders?status=pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &pending))
	assert.Empty(t, pending)

	rec = do(e, http.MethodDelete, "/api/orders/"+itoa(created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted struct {
		ID      int64  `json:"id"`
		Deleted bool   `json:"deleted"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &deleted))
	assert.Equal(t, created.ID, deleted.ID)
	assert.True(t, deleted.Deleted)
	assert.Equal(t, "Order deleted successfully and stock restored", deleted.Message)
	assert.Equal(t, 10, st.Stock(rose.ID))

	rec = do(e, http.MethodDelete, "/api/orders/"+itoa(created.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreate_ErrorResponses(t *testing.T) {
	e, st := setup(t)
	rose := st.SeedPlant("Rose", "50", 2)

	rec := do(e, http.MethodPost, "/api/orders", `{"customerName":"Meera","items":[{"plantId":`+itoa(rose.ID)+`,"quantity":3}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "unprocessable_entity", env.Error.Kind)
	assert.Contains(t, env.Error.Message, "Rose")
	assert.EqualValues(t, 2, env.Error.Details["available"])
	assert.EqualValues(t, 3, env.Error.Details["requested"])
	assert.Equal(t, 2, st.Stock(rose.ID))

	rec = do(e, http.MethodPost, "/api/orders", `{"customerName":"Meera","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/orders", `{"customerName":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/orders", `{"customerName":"Meera","items":[{"plantId":999,"quantity":1}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/api/orders/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
