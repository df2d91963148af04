package tiantian

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL))
}

func TestGetRealtimeNav(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/001186.js", r.URL.Path)
		w.Write([]byte(`jsonpgz({"fundcode":"001186","name":"富国文体健康股票A","jzrq":"2026-03-02","dwjz":"2.4560","gsz":"2.4735","gszzl":"0.71","gztime":"2026-03-03 14:30"});`))
	})

	nav, err := client.GetRealtimeNav(context.Background(), "001186")
	require.NoError(t, err)
	require.NotNil(t, nav)

	assert.Equal(t, "001186", nav.FundCode)
	assert.Equal(t, "富国文体健康股票A", nav.FundName)
	assert.Equal(t, "2026-03-02", nav.NavDate)
	assert.Equal(t, 2.4560, nav.CurrentNav)
	assert.Equal(t, 2.4735, nav.EstimatedNav)
	assert.Equal(t, 0.71, nav.EstimatedGrowth)
	assert.Equal(t, time.Date(2026, 3, 3, 14, 30, 0, 0, time.UTC), nav.UpdateTime)
}

func TestGetRealtimeNavUnknownFund(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// fundgz answers unknown codes with an empty document
		w.Write([]byte(``))
	})

	nav, err := client.GetRealtimeNav(context.Background(), "999999")
	require.NoError(t, err)
	assert.Nil(t, nav)
}

func TestGetRealtimeNavHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})

	_, err := client.GetRealtimeNav(context.Background(), "001186")
	require.Error(t, err)
}

func TestGetRealtimeNavMalformedNumbers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`jsonpgz({"fundcode":"001186","name":"某基金","jzrq":"2026-03-02","dwjz":"n/a","gsz":"2.50","gszzl":"0.30","gztime":"bad"});`))
	})

	nav, err := client.GetRealtimeNav(context.Background(), "001186")
	require.NoError(t, err)
	require.NotNil(t, nav)

	// Malformed numeric fields read as zero, the record is not rejected
	assert.Equal(t, 0.0, nav.CurrentNav)
	assert.Equal(t, 2.50, nav.EstimatedNav)
	assert.True(t, nav.UpdateTime.IsZero())
}
