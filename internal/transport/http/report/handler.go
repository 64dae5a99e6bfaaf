package report

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/Additional-Code/nursery/internal/dto"
	"github.com/Additional-Code/nursery/internal/presentation/http/response"
	service "github.com/Additional-Code/nursery/internal/service/report"
	"github.com/Additional-Code/nursery/internal/transport/http/router"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/nursery/transport/http/report")

// Handler exposes reports over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a report Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the private API group.
func Register(groups *router.Groups, h *Handler) {
	g := groups.Private.Group("/reports")
	g.GET("/summary", h.summary)
	g.GET("/purchases", h.purchases)
	g.GET("/purchases/pdf", h.purchasesPDF)
}

func (h *Handler) summary(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.summary")
	defer span.End()

	sum, err := h.svc.Summary(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(sum).Build()
}

func (h *Handler) purchases(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.purchases")
	defer span.End()

	orders, err := h.svc.Purchases(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderResponses(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) purchasesPDF(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "reports.purchasesPDF")
	defer span.End()

	pdf, err := h.svc.PurchasesPDF(ctx)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithAttachment("purchase_report.pdf", "application/pdf", pdf).Build()
}
