package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/nursery/internal/document"
	"github.com/Additional-Code/nursery/internal/entity"
	service "github.com/Additional-Code/nursery/internal/service/report"
	"github.com/Additional-Code/nursery/internal/store"
	"github.com/Additional-Code/nursery/internal/transport/http/router"
)

type orders []*entity.Order

func (o orders) GetByID(context.Context, int64) (*entity.Order, error) { return nil, store.ErrNotFound }

func (o orders) List(_ context.Context, f store.OrderFilter) ([]*entity.Order, error) {
	var out []*entity.Order
	for _, ord := range o {
		if f.Status == "" || ord.Status == f.Status {
			out = append(out, ord)
		}
	}
	return out, nil
}

func TestReportEndpoints(t *testing.T) {
	svc := service.NewService(service.Params{
		Orders: orders{
			{ID: 1, OrderNo: "ORD-1", CustomerName: "A", Status: entity.OrderStatusPaid, GrandTotal: decimal.NewFromInt(500), PaidAmount: decimal.NewFromInt(500)},
			{ID: 2, OrderNo: "ORD-2", CustomerName: "B", Status: entity.OrderStatusPending, GrandTotal: decimal.NewFromInt(300)},
		},
		Renderer: document.New(document.Letterhead{Name: "Test Nursery"}),
	})
	e := echo.New()
	api := e.Group(router.BasePath)
	Register(&router.Groups{Public: api, Private: api}, NewHandler(svc))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/api/reports/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	var sum struct {
		Data struct {
			OrderCount         int    `json:"order_count"`
			Revenue            string `json:"revenue"`
			OutstandingBalance string `json:"outstanding_balance"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, 2, sum.Data.OrderCount)
	assert.Equal(t, "500", sum.Data.Revenue)
	assert.Equal(t, "300", sum.Data.OutstandingBalance)

	rec = get("/api/reports/purchases")
	require.Equal(t, http.StatusOK, rec.Code)
	var purchases struct {
		Data []struct {
			OrderNo string `json:"orderNo"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &purchases))
	require.Len(t, purchases.Data, 1)
	assert.Equal(t, "ORD-1", purchases.Data[0].OrderNo)

	rec = get("/api/reports/purchases/pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
}
