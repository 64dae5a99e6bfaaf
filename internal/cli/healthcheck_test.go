package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	status, err := probeHealth(context.Background(), resty.New(), srv.URL+"/health")
	require.NoError(t, err)
	assert.Equal(t, "ok", status)

	_, err = probeHealth(context.Background(), resty.New(), srv.URL+"/down")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHealthcheckCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"healthcheck", "--url", srv.URL + "/health"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), ": ok")
}
