package trader

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/config"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/exchange"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/logger"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/metrics"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/store"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/strategy"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu          sync.Mutex
	bars        []models.Bar
	barsErr     error
	price       float64
	balances    []exchange.Balance
	orders      []models.OrderRequest
	orderErr    error
	status      models.OrderStatus
	marketCalls int
	orderCalls  int
}

func (f *fakeGateway) GetMarketData(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error) {
	f.mu.Lock()
	f.marketCalls++
	f.mu.Unlock()
	return f.bars, f.barsErr
}

func (f *fakeGateway) marketCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marketCalls
}

func (f *fakeGateway) orderCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderCalls
}

func (f *fakeGateway) GetPrice(ctx context.Context, symbol string) (float64, error) {
	return f.price, nil
}

func (f *fakeGateway) GetBalances(ctx context.Context) ([]exchange.Balance, error) {
	return f.balances, nil
}

func (f *fakeGateway) GetPositions(ctx context.Context, symbol string) ([]exchange.Position, error) {
	return nil, nil
}

func (f *fakeGateway) place(req models.OrderRequest) (models.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return models.OrderResult{}, f.orderErr
	}
	f.orders = append(f.orders, req)
	return models.OrderResult{OrderID: "42", Status: models.OrderStatusNew}, nil
}

func (f *fakeGateway) PlaceMarketOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	return f.place(req)
}

func (f *fakeGateway) PlaceLimitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	return f.place(req)
}

func (f *fakeGateway) PlaceStopLossOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	return f.place(req)
}

func (f *fakeGateway) PlaceTakeProfitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	return f.place(req)
}

func (f *fakeGateway) PlaceTrailingStopOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	return f.place(req)
}

func (f *fakeGateway) GetOrder(ctx context.Context, orderID, symbol string) (models.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderCalls++
	status := f.status
	if status == "" {
		status = models.OrderStatusFilled
	}
	return models.OrderResult{OrderID: orderID, Status: status}, nil
}

func (f *fakeGateway) placedOrders() []models.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.OrderRequest, len(f.orders))
	copy(out, f.orders)
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *recordingNotifier) Notify(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
}

func (n *recordingNotifier) Titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.titles))
	copy(out, n.titles)
	return out
}

func testTraderConfig() config.Settings {
	return config.Settings{
		Trading: config.TradingConfig{
			Pair:            "BTCUSDT",
			Strategy:        "DCA",
			Leverage:        10,
			MarginType:      "ISOLATED",
			MaxPositionSize: 0.1,
			Interval:        "1M",
			BarLimit:        100,
		},
		Watchdog: config.WatchdogConfig{
			HeartbeatSec:    1,
			ErrorBackoffSec: 1,
			MonitorDelaySec: 0,
			StopTimeoutSec:  2,
			RestartDelaySec: 0,
		},
		Risk: config.RiskConfig{TrailingPercentage: 1.0},
	}
}

func newTestTrader(t *testing.T, s config.Settings, gw *fakeGateway, signal models.Signal) (*Trader, *recordingNotifier) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	notifier := &recordingNotifier{}
	tr := New(7, Deps{
		Config:   config.New(s),
		Gateway:  gw,
		Provider: signalProvider{signal: signal},
		Store:    st,
		Notifier: notifier,
		Log:      logger.Discard(),
	})
	return tr, notifier
}

type signalProvider struct {
	signal models.Signal
	err    error
}

func (p signalProvider) Evaluate(ctx context.Context, kind strategy.Kind, symbol string, balance float64) (models.Signal, error) {
	return p.signal, p.err
}

func TestEnableDisableLifecycle(t *testing.T) {
	cfg := testTraderConfig()
	gw := &fakeGateway{price: 100}
	tr, notifier := newTestTrader(t, cfg, gw, models.Signal{})

	tr.Enable()
	require.True(t, tr.IsEnabled())
	require.True(t, tr.IsRunning())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Running.WithLabelValues("7")))

	tr.Disable()
	assert.False(t, tr.IsEnabled())
	assert.Eventually(t, func() bool { return !tr.IsRunning() }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Running.WithLabelValues("7")) == 0
	}, 2*time.Second, 10*time.Millisecond)

	// После остановки проходы цикла больше не выполняются.
	calls := gw.marketCallCount()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, calls, gw.marketCallCount())

	titles := notifier.Titles()
	assert.Contains(t, titles, "🤖 Автоторговля включена")
	assert.Contains(t, titles, "❌ Автоторговля выключена")
}

func TestEnableIsIdempotent(t *testing.T) {
	cfg := testTraderConfig()
	gw := &fakeGateway{price: 100}
	tr, _ := newTestTrader(t, cfg, gw, models.Signal{})

	tr.Enable()
	tr.Enable()
	assert.True(t, tr.IsRunning())

	tr.Disable()
	assert.Eventually(t, func() bool { return !tr.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestRestartWhileDisabled(t *testing.T) {
	cfg := testTraderConfig()
	gw := &fakeGateway{price: 100}
	tr, _ := newTestTrader(t, cfg, gw, models.Signal{})

	tr.Restart()
	status := tr.Status()
	assert.Equal(t, 1, status.RestartCount)
	assert.NotNil(t, status.LastRestart)
	assert.False(t, status.IsRunning)
}

func TestRestartWhileEnabled(t *testing.T) {
	cfg := testTraderConfig()
	gw := &fakeGateway{price: 100}
	tr, _ := newTestTrader(t, cfg, gw, models.Signal{})

	tr.Enable()
	tr.Restart()
	assert.True(t, tr.IsRunning())
	assert.Equal(t, 1, tr.Status().RestartCount)

	tr.Disable()
	assert.Eventually(t, func() bool { return !tr.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestRunCycleEmptyMarketDataSkips(t *testing.T) {
	cfg := testTraderConfig()
	gw := &fakeGateway{price: 100}
	tr, _ := newTestTrader(t, cfg, gw, models.Signal{
		Action: models.OrderSideBuy, Symbol: "BTCUSDT", Quantity: 0.1, Price: 100,
	})

	require.NoError(t, tr.runCycle(context.Background()))
	assert.Empty(t, gw.placedOrders())
}

func TestRunCycleMarketDataError(t *testing.T) {
	cfg := testTraderConfig()
	gw := &fakeGateway{barsErr: errors.New("api down")}
	tr, _ := newTestTrader(t, cfg, gw, models.Signal{})

	err := tr.runCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api down")
}

func TestRunCyclePlacesOrder(t *testing.T) {
	cfg := testTraderConfig()
	gw := &fakeGateway{
		price:    100,
		bars:     []models.Bar{{Close: 100, Volume: 1}},
		balances: []exchange.Balance{{Asset: "USDT", Total: 1000, Available: 1000}},
	}
	tr, notifier := newTestTrader(t, cfg, gw, models.Signal{
		Action:   models.OrderSideBuy,
		Symbol:   "BTCUSDT",
		Quantity: 0.1,
		Price:    100,
	})

	require.NoError(t, tr.runCycle(context.Background()))

	orders := gw.placedOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderSideBuy, orders[0].Side)
	assert.Equal(t, 10, orders[0].Leverage)
	assert.Equal(t, "ISOLATED", orders[0].MarginType)
	assert.True(t, orders[0].IOC)

	assert.Contains(t, notifier.Titles(), "✅ Ордер размещён")
	assert.Len(t, tr.store.TradeHistory(7), 1)
}

func TestRunCycleMonitorsOrderBeforeReturning(t *testing.T) {
	cfg := testTraderConfig()
	cfg.Watchdog.MonitorDelaySec = 1
	gw := &fakeGateway{
		price:    100,
		bars:     []models.Bar{{Close: 100, Volume: 1}},
		balances: []exchange.Balance{{Asset: "USDT", Available: 1000}},
	}
	tr, _ := newTestTrader(t, cfg, gw, models.Signal{
		Action:   models.OrderSideBuy,
		Symbol:   "BTCUSDT",
		Quantity: 0.1,
		Price:    100,
	})

	require.NoError(t, tr.runCycle(context.Background()))

	// Статус ордера проверен до возврата из прохода, а не после.
	assert.Equal(t, 1, gw.orderCallCount())
}

func TestMonitorOrderCancellable(t *testing.T) {
	cfg := testTraderConfig()
	cfg.Watchdog.MonitorDelaySec = 30
	gw := &fakeGateway{}
	tr, _ := newTestTrader(t, cfg, gw, models.Signal{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		tr.monitorOrder(ctx, "42", "BTCUSDT")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("мониторинг не прервался по отмене")
	}
	assert.Equal(t, 0, gw.orderCallCount())
}

func TestExecuteTradeInvalidSignal(t *testing.T) {
	cfg := testTraderConfig()
	gw := &fakeGateway{price: 100}
	tr, notifier := newTestTrader(t, cfg, gw, models.Signal{})

	tr.executeTrade(context.Background(), models.Signal{
		Action: models.OrderSideBuy, Symbol: "BTCUSDT", Quantity: 0, Price: 100,
	}, nil)

	assert.Empty(t, gw.placedOrders())
	assert.Empty(t, notifier.Titles())
}

func TestExecuteTradeGatewayError(t *testing.T) {
	cfg := testTraderConfig()
	gw := &fakeGateway{price: 100, orderErr: errors.New("insufficient balance")}
	tr, notifier := newTestTrader(t, cfg, gw, models.Signal{})

	tr.executeTrade(context.Background(), models.Signal{
		Action: models.OrderSideSell, Symbol: "BTCUSDT", Quantity: 0.1, Price: 100,
	}, nil)

	assert.Empty(t, gw.placedOrders())
	assert.Contains(t, notifier.Titles(), "❌ Ордер не выполнен")
	assert.Empty(t, tr.store.TradeHistory(7))
}

func TestSetTradingPair(t *testing.T) {
	cfg := testTraderConfig()
	gw := &fakeGateway{price: 100}
	tr, notifier := newTestTrader(t, cfg, gw, models.Signal{})

	tr.SetTradingPair("ethusdt")
	assert.Equal(t, "ETHUSDT", tr.Pair())
	assert.Contains(t, notifier.Titles(), "🔄 Торговая пара изменена")
	assert.Equal(t, "ETHUSDT", tr.store.GetUserSettings(7).TradingPair)
}

func TestQuoteAsset(t *testing.T) {
	assert.Equal(t, "USDT", quoteAsset("BTCUSDT"))
	assert.Equal(t, "USDC", quoteAsset("ETHUSDC"))
	assert.Equal(t, "USDT", quoteAsset("WEIRD"))
}
