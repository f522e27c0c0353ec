package cashier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slipServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/verify", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEasySlipVerify(t *testing.T) {
	t.Parallel()

	t.Run("accepted slip", func(t *testing.T) {
		t.Parallel()
		srv := slipServer(t, http.StatusOK,
			`{"status":200,"data":{"transRef":"TR123","amount":{"amount":1500.50}}}`)
		c := NewEasySlipClient(srv.URL, "test-key")
		slip, err := c.Verify(context.Background(), "qr-payload")
		require.NoError(t, err)
		assert.Equal(t, "TR123", slip.TransRef)
		assert.True(t, slip.Amount.Equal(decimal.NewFromFloat(1500.50)))
	})

	t.Run("provider rejection carries the message", func(t *testing.T) {
		t.Parallel()
		srv := slipServer(t, http.StatusBadRequest,
			`{"status":400,"message":"duplicate slip"}`)
		c := NewEasySlipClient(srv.URL, "test-key")
		_, err := c.Verify(context.Background(), "qr-payload")
		require.ErrorIs(t, err, ErrSlipRejected)
		assert.Contains(t, err.Error(), "duplicate slip")
	})

	t.Run("zero amount is rejected", func(t *testing.T) {
		t.Parallel()
		srv := slipServer(t, http.StatusOK,
			`{"status":200,"data":{"transRef":"TR123","amount":{"amount":0}}}`)
		c := NewEasySlipClient(srv.URL, "test-key")
		_, err := c.Verify(context.Background(), "qr-payload")
		assert.ErrorIs(t, err, ErrSlipRejected)
	})

	t.Run("missing transaction reference is rejected", func(t *testing.T) {
		t.Parallel()
		srv := slipServer(t, http.StatusOK,
			`{"status":200,"data":{"transRef":"","amount":{"amount":100}}}`)
		c := NewEasySlipClient(srv.URL, "test-key")
		_, err := c.Verify(context.Background(), "qr-payload")
		assert.ErrorIs(t, err, ErrSlipRejected)
	})

	t.Run("unconfigured key fails fast", func(t *testing.T) {
		t.Parallel()
		c := NewEasySlipClient("https://example.invalid", "")
		_, err := c.Verify(context.Background(), "qr-payload")
		assert.Error(t, err)
	})
}
