package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
		code   codes.Code
	}{
		{BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{Unauthorized("who"), http.StatusUnauthorized, codes.Unauthenticated},
		{NotFound("gone"), http.StatusNotFound, codes.NotFound},
		{Conflict("dup"), http.StatusConflict, codes.AlreadyExists},
		{Unprocessable("short"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Internal("oops"), http.StatusInternalServerError, codes.Internal},
	}
	for _, tc := range cases {
		t.Run(string(tc.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.StatusCode())
			assert.Equal(t, tc.code, tc.err.GRPCCode())
		})
	}
}

func TestDetailsAndCause(t *testing.T) {
	cause := errors.New("deadlock")
	err := Unprocessable("insufficient stock",
		WithDetail("plant_id", int64(7)),
		WithDetails(map[string]any{"available": 2, "requested": 5}),
		WithCause(cause),
	)

	assert.Equal(t, int64(7), err.Details()["plant_id"])
	assert.Equal(t, 2, err.Details()["available"])
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insufficient stock: deadlock", err.Error())
}

func TestFromAndIsKind(t *testing.T) {
	assert.Nil(t, From(nil))

	wrapped := fmt.Errorf("handler: %w", NotFound("order not found"))
	assert.Equal(t, KindNotFound, From(wrapped).Kind())
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindConflict))

	plain := From(errors.New("boom"))
	assert.Equal(t, KindInternal, plain.Kind())
	assert.Equal(t, "internal error", plain.Message())
}

func TestKindForStatus(t *testing.T) {
	cases := map[int]Kind{
		http.StatusBadRequest:            KindBadRequest,
		http.StatusMethodNotAllowed:      KindBadRequest,
		http.StatusRequestEntityTooLarge: KindBadRequest,
		http.StatusUnauthorized:          KindUnauthorized,
		http.StatusForbidden:             KindUnauthorized,
		http.StatusNotFound:              KindNotFound,
		http.StatusConflict:              KindConflict,
		http.StatusUnprocessableEntity:   KindUnprocessableEntity,
		http.StatusServiceUnavailable:    KindInternal,
	}
	for status, want := range cases {
		assert.Equal(t, want, KindForStatus(status), http.StatusText(status))
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("load: %w", NotFound("order not found"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, New(Kind("teapot"), "x").StatusCode())
}
