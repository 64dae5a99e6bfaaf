package response

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/nursery/pkg/errorbank"
)

// Builder helps construct consistent HTTP responses. Successful responses are
// JSON envelopes unless an attachment is set.
type Builder struct {
	ctx        echo.Context
	status     int
	data       any
	err        error
	meta       map[string]any
	attachment *attachment
}

type attachment struct {
	filename    string
	contentType string
	body        []byte
}

// New instantiates a Builder for the provided request context.
func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithData attaches a success payload.
func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithError records an error to be rendered.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// WithMeta appends auxiliary metadata to the response.
func (b *Builder) WithMeta(key string, value any) *Builder {
	if key == "" {
		return b
	}
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = value
	return b
}

// WithAttachment sends body as a downloadable file instead of a JSON envelope.
func (b *Builder) WithAttachment(filename, contentType string, body []byte) *Builder {
	b.attachment = &attachment{filename: filename, contentType: contentType, body: body}
	return b
}

// Build finalises and emits the HTTP response.
func (b *Builder) Build() error {
	if b.err != nil {
		return b.buildError()
	}
	if b.attachment != nil {
		return b.buildAttachment()
	}
	return b.buildSuccess()
}

func (b *Builder) buildAttachment() error {
	a := b.attachment
	b.ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", a.filename))
	return b.ctx.Blob(b.status, a.contentType, a.body)
}

func (b *Builder) requestID() string {
	if id := b.ctx.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return b.ctx.Request().Header.Get(echo.HeaderXRequestID)
}

func (b *Builder) buildSuccess() error {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	payload := struct {
		Success bool           `json:"success"`
		Data    any            `json:"data,omitempty"`
		Meta    map[string]any `json:"meta,omitempty"`
	}{
		Success: true,
		Data:    b.data,
		Meta:    b.meta,
	}
	return b.ctx.JSON(b.status, payload)
}

func (b *Builder) buildError() error {
	appErr := errorbank.From(b.err)
	status := b.status
	if status < 400 {
		status = appErr.StatusCode()
	}
	payload := struct {
		Success bool `json:"success"`
		Error   struct {
			Kind    string         `json:"kind"`
			Message string         `json:"message"`
			Details map[string]any `json:"details,omitempty"`
		} `json:"error"`
		Meta map[string]any `json:"meta,omitempty"`
	}{
		Success: false,
		Meta:    b.meta,
	}
	payload.Error.Kind = string(appErr.Kind())
	payload.Error.Message = appErr.Message()
	if appErr.Kind() != errorbank.KindInternal {
		payload.Error.Details = appErr.Details()
	}
	if id := b.requestID(); id != "" {
		if payload.Meta == nil {
			payload.Meta = make(map[string]any, 1)
		}
		payload.Meta["request_id"] = id
	}

	return b.ctx.JSON(status, payload)
}
