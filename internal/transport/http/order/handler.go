package order

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/nursery/internal/dto"
	"github.com/Additional-Code/nursery/internal/presentation/http/response"
	service "github.com/Additional-Code/nursery/internal/service/order"
	"github.com/Additional-Code/nursery/internal/transport/http/router"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

const pdfContentType = "application/pdf"

var httpTracer = otel.Tracer("github.com/Additional-Code/nursery/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the private API group.
func Register(groups *router.Groups, h *Handler) {
	g := groups.Private.Group("/orders")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.DELETE("/:id", h.delete)
	g.GET("/:id/invoice", h.invoice)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.svc.List(ctx, c.QueryParam("status"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderResponses(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := dto.NewOrderResponse(order)
	out.InvoiceURL = h.svc.InvoiceURL(order.ID)
	return b.WithData(out).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateOrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	span.SetAttributes(
		attribute.String("order.number", payload.OrderNo),
		attribute.Int("order.items", len(payload.Items)),
	)
	defer span.End()

	placed, err := h.svc.Create(ctx, toInput(payload))
	if err != nil {
		return b.WithError(err).Build()
	}

	out := dto.NewOrderResponse(placed.Order)
	out.InvoiceURL = placed.InvoiceURL
	return b.WithStatus(http.StatusCreated).WithData(out).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]any{
		"id":      id,
		"deleted": true,
		"message": "Order deleted successfully and stock restored",
	}).Build()
}

func (h *Handler) invoice(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.invoice", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	pdf, order, err := h.svc.Invoice(ctx, id)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithAttachment(fmt.Sprintf("invoice_%s.pdf", order.OrderNo), pdfContentType, pdf).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}

func toInput(p dto.CreateOrderRequest) service.CreateInput {
	items := make([]service.ItemInput, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, service.ItemInput{
			PlantID:  it.PlantID,
			Rate:     it.Rate,
			Quantity: it.Quantity,
			Total:    it.Total,
		})
	}
	return service.CreateInput{
		OrderNo:         p.OrderNo,
		CustomerName:    p.CustomerName,
		CustomerContact: p.CustomerContact,
		CustomerAddress: p.CustomerAddress,
		Items:           items,
		SubTotal:        p.SubTotal,
		Discount:        p.Discount,
		Tax:             p.Tax,
		GrandTotal:      p.GrandTotal,
		PaidAmount:      p.PaidAmount,
		Status:          p.Status,
	}
}
