package pionex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/logger"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BTCUSDT", "BTC_USDT"},
		{"btcusdt", "BTC_USDT"},
		{"BTC_USDT", "BTC_USDT"},
		{"ETHUSDC", "ETH_USDC"},
		{"SOLBTC", "SOL_BTC"},
		{"USDT", "USDT"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSymbol(tt.in), tt.in)
	}
}

func TestFormatInterval(t *testing.T) {
	assert.Equal(t, "1M", formatInterval("1m"))
	assert.Equal(t, "1H", formatInterval(" 1h "))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.1", formatFloat(0.1))
	assert.Equal(t, "100", formatFloat(100))
	assert.Equal(t, "0.00012", formatFloat(0.00012))
	assert.Equal(t, "0", formatFloat(0))
}

func TestSign(t *testing.T) {
	got := sign("secret", "GET/api/v1/account/balances?timestamp=1")
	assert.Len(t, got, 64)
	assert.Equal(t, sign("secret", "GET/api/v1/account/balances?timestamp=1"), got)
	assert.NotEqual(t, sign("other", "GET/api/v1/account/balances?timestamp=1"), got)
}

func TestEncodeSorted(t *testing.T) {
	assert.Equal(t, "", encodeSorted(nil))
	assert.Equal(t, "a=1&b=2&z=3", encodeSorted(map[string]string{"z": "3", "a": "1", "b": "2"}))
}

func TestRetryClassification(t *testing.T) {
	assert.False(t, isRetryable(nil))

	rateLimit := errTest("Превышен лимит запросов: 429")
	assert.True(t, isRateLimitError(rateLimit))
	assert.True(t, isRetryable(rateLimit))

	server := errTest("Ошибка сервера биржи: 502 Bad Gateway")
	assert.True(t, isRetryable(server))
	assert.False(t, isRateLimitError(server))

	badRequest := errTest("Неуспешный статус: 400 Bad Request: {}")
	assert.False(t, isRetryable(badRequest))
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestGetMarketDataReversesBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/market/klines", r.URL.Path)
		assert.Equal(t, "BTC_USDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1M", r.URL.Query().Get("interval"))
		w.Write([]byte(`{"result":true,"data":{"klines":[
			{"time":2000,"open":"101","high":"102","low":"100","close":"101.5","volume":"10"},
			{"time":1000,"open":"100","high":"101","low":"99","close":"100.5","volume":"12"}
		]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", logger.Discard())
	bars, err := c.GetMarketData(context.Background(), "BTCUSDT", "1m", 100)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, 100.5, bars[0].Close)
}

func TestGetPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":true,"data":{"tickers":[{"symbol":"BTC_USDT","close":"65000.5"}]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", logger.Discard())
	price, err := c.GetPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 65000.5, price)

	_, err = c.GetPrice(context.Background(), "ETHUSDT")
	assert.Error(t, err)
}

func TestPlaceMarketOrderSignsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key", r.Header.Get("PIONEX-KEY"))
		assert.NotEmpty(t, r.Header.Get("PIONEX-SIGNATURE"))
		assert.NotEmpty(t, r.URL.Query().Get("timestamp"))
		assert.Equal(t, "true", r.URL.Query().Get("IOC"))
		assert.Equal(t, "MARKET", r.URL.Query().Get("type"))
		w.Write([]byte(`{"result":true,"data":{"orderId":123456,"status":"NEW"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "secret", logger.Discard())
	result, err := c.PlaceMarketOrder(context.Background(), models.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     models.OrderSideBuy,
		Quantity: 0.5,
		Leverage: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "123456", result.OrderID)
	assert.Equal(t, models.OrderStatusNew, result.Status)
}

func TestAPIErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":false,"code":"TRADE_INSUFFICIENT_BALANCE","message":"insufficient balance"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "secret", logger.Discard())
	_, err := c.GetBalances(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient balance")
}
