package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forca/trading/internal/model"
)

func TestClient_CurrentPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/quote/AAPL", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"AAPL","price":"187.33","update":"2024-05-01T15:04:05Z"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	price, err := client.CurrentPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("187.33")), "got %s", price)
}

func TestClient_CurrentPrice_Errors(t *testing.T) {
	testTable := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "upstream failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "unknown symbol",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
		{
			name: "zero price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"symbol":"AAPL","price":"0"}`))
			},
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			srv := httptest.NewServer(testCase.handler)
			defer srv.Close()

			client := NewClient(srv.URL, time.Second)
			_, err := client.CurrentPrice(context.Background(), "AAPL")
			assert.ErrorIs(t, err, model.ErrPriceUnavailable)
		})
	}
}

func TestClient_CurrentPrice_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 100*time.Millisecond)
	_, err := client.CurrentPrice(context.Background(), "AAPL")
	assert.ErrorIs(t, err, model.ErrPriceUnavailable)
}
