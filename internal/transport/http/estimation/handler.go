package estimation

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
	service "github.com/Additional-Code/nursery/internal/service/estimation"
	"github.com/Additional-Code/nursery/internal/transport/http/router"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/nursery/transport/http/estimation")

// Handler exposes estimation endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an estimation Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the private API group.
func Register(groups *router.Groups, h *Handler) {
	g := groups.Private.Group("/estimations")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.DELETE("/:id", h.delete)
	g.GET("/:id/pdf", h.pdf)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "estimations.list")
	defer span.End()

	ests, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewEstimationResponses(ests)).WithMeta("count", len(ests)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "estimations.getByID", trace.WithAttributes(attribute.Int64("estimation.id", id)))
	defer span.End()

	est, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewEstimationResponse(est)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateEstimationRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "estimations.create")
	defer span.End()

	items := make([]service.ItemInput, 0, len(payload.Items))
	for _, it := range payload.Items {
		items = append(items, service.ItemInput{PlantName: it.PlantName, Rate: it.Rate, Quantity: it.Quantity, Total: it.Total})
	}
	est, err := h.svc.Create(ctx, service.CreateInput{
		EstimateNo:      payload.EstimateNo,
		CustomerName:    payload.CustomerName,
		CustomerContact: payload.CustomerContact,
		CustomerAddress: payload.CustomerAddress,
		Items:           items,
		GrandTotal:      payload.GrandTotal,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewEstimationResponse(est)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "estimations.delete", trace.WithAttributes(attribute.Int64("estimation.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]any{"id": id, "deleted": true}).Build()
}

func (h *Handler) pdf(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "estimations.pdf", trace.WithAttributes(attribute.Int64("estimation.id", id)))
	defer span.End()

	pdf, est, err := h.svc.PDF(ctx, id)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithAttachment(fmt.Sprintf("estimate_%s.pdf", est.EstimateNo), "application/pdf", pdf).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}
