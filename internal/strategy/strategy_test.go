package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/config"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/exchange"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/logger"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	bars  []models.Bar
	price float64
}

func (s *stubGateway) GetMarketData(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error) {
	return s.bars, nil
}

func (s *stubGateway) GetPrice(ctx context.Context, symbol string) (float64, error) {
	return s.price, nil
}

func (s *stubGateway) GetBalances(ctx context.Context) ([]exchange.Balance, error) {
	return nil, nil
}

func (s *stubGateway) GetPositions(ctx context.Context, symbol string) ([]exchange.Position, error) {
	return nil, nil
}

func (s *stubGateway) PlaceMarketOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	return models.OrderResult{}, nil
}

func (s *stubGateway) PlaceLimitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	return models.OrderResult{}, nil
}

func (s *stubGateway) PlaceStopLossOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	return models.OrderResult{}, nil
}

func (s *stubGateway) PlaceTakeProfitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	return models.OrderResult{}, nil
}

func (s *stubGateway) PlaceTrailingStopOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	return models.OrderResult{}, nil
}

func (s *stubGateway) GetOrder(ctx context.Context, orderID, symbol string) (models.OrderResult, error) {
	return models.OrderResult{}, nil
}

func providerConfig() *config.Config {
	return config.New(config.Settings{
		Trading: config.TradingConfig{
			Interval:        "1M",
			BarLimit:        100,
			MaxPositionSize: 0.1,
		},
		Risk: config.RiskConfig{
			StopLossPercentage:   1.5,
			TakeProfitPercentage: 2.5,
		},
		VolumeFilter: config.VolumeFilterConfig{Multiplier: 1.5, EMAPeriod: 20},
		MTFRSI:       config.MTFRSIConfig{SecondTimeframe: "1H"},
	})
}

func closesToBars(closes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	return bars
}

func descendingBars(n int) []models.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = float64(1000 - i)
	}
	return closesToBars(closes)
}

func TestRSI(t *testing.T) {
	t.Run("insufficient data neutral", func(t *testing.T) {
		assert.Equal(t, 50.0, RSI(closesToBars([]float64{1, 2, 3}), 14))
	})

	t.Run("only gains", func(t *testing.T) {
		closes := make([]float64, 20)
		for i := range closes {
			closes[i] = float64(100 + i)
		}
		assert.Equal(t, 100.0, RSI(closesToBars(closes), 14))
	})

	t.Run("only losses", func(t *testing.T) {
		assert.InDelta(t, 0.0, RSI(descendingBars(20), 14), 1e-9)
	})
}

func TestEMA(t *testing.T) {
	assert.Equal(t, 0.0, EMA(nil, 10))
	assert.Equal(t, 5.0, EMA([]float64{5}, 10))
	assert.InDelta(t, 7.0, EMA([]float64{7, 7, 7, 7, 7}, 3), 1e-9)
}

func TestMACDInsufficientData(t *testing.T) {
	macd, signal := MACD(closesToBars([]float64{1, 2, 3}), 12, 26, 9)
	assert.Equal(t, 0.0, macd)
	assert.Equal(t, 0.0, signal)
}

func TestVolumeEMA(t *testing.T) {
	bars := closesToBars([]float64{1, 1, 1, 1, 1})
	assert.InDelta(t, 100.0, VolumeEMA(bars, 3), 1e-9)
	assert.Equal(t, 0.0, VolumeEMA(nil, 3))
}

func TestParseKind(t *testing.T) {
	kind, ok := ParseKind("BOT_2025")
	assert.True(t, ok)
	assert.Equal(t, KindBreakout, kind)

	_, ok = ParseKind("MARTINGALE")
	assert.False(t, ok)
}

func TestEvaluateUnknownKind(t *testing.T) {
	p := NewProvider(&stubGateway{}, providerConfig(), logger.Discard())
	_, err := p.Evaluate(context.Background(), Kind("MARTINGALE"), "BTCUSDT", 1000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestEvalDCA(t *testing.T) {
	p := NewProvider(&stubGateway{price: 200}, providerConfig(), logger.Discard())
	sig, err := p.Evaluate(context.Background(), KindDCA, "BTCUSDT", 1000)
	require.NoError(t, err)
	require.False(t, sig.Empty())
	assert.Equal(t, models.OrderSideBuy, sig.Action)
	assert.InDelta(t, 1000*0.1/200, sig.Quantity, 1e-9)
	assert.InDelta(t, 200*(1-0.015), sig.StopLoss, 1e-9)
	assert.InDelta(t, 200*(1+0.025), sig.TakeProfit, 1e-9)
}

func TestEvalRSIOversold(t *testing.T) {
	p := NewProvider(&stubGateway{bars: descendingBars(40)}, providerConfig(), logger.Discard())
	sig, err := p.Evaluate(context.Background(), KindRSI, "BTCUSDT", 1000)
	require.NoError(t, err)
	require.False(t, sig.Empty())
	assert.Equal(t, models.OrderSideBuy, sig.Action)
	assert.Equal(t, string(KindRSI), sig.Strategy)
}

func TestEvalGridNoSignal(t *testing.T) {
	p := NewProvider(&stubGateway{}, providerConfig(), logger.Discard())
	sig, err := p.Evaluate(context.Background(), KindGrid, "BTCUSDT", 1000)
	require.NoError(t, err)
	assert.True(t, sig.Empty())
}

func TestEvalBreakoutWithoutEngine(t *testing.T) {
	p := NewProvider(&stubGateway{bars: descendingBars(5)}, providerConfig(), logger.Discard())
	sig, err := p.Evaluate(context.Background(), KindBreakout, "BTCUSDT", 1000)
	require.NoError(t, err)
	assert.True(t, sig.Empty())
}

type stubBreakout struct {
	signal models.Signal
	ok     bool
}

func (s *stubBreakout) Evaluate(symbol string, price float64, bars []models.Bar) (models.Signal, bool) {
	return s.signal, s.ok
}

func TestEvalBreakoutSetsQuantity(t *testing.T) {
	gw := &stubGateway{bars: closesToBars([]float64{100, 100, 110})}
	p := NewProvider(gw, providerConfig(), logger.Discard())
	p.AttachBreakout(&stubBreakout{
		signal: models.Signal{Action: models.OrderSideBuy, Symbol: "BTCUSDT", Price: 110, Strategy: string(KindBreakout)},
		ok:     true,
	})

	sig, err := p.Evaluate(context.Background(), KindBreakout, "BTCUSDT", 1100)
	require.NoError(t, err)
	require.False(t, sig.Empty())
	assert.InDelta(t, 1100*0.1/110, sig.Quantity, 1e-9)
}

func TestEntrySignalZeroBalance(t *testing.T) {
	p := NewProvider(&stubGateway{price: 100}, providerConfig(), logger.Discard())
	sig, err := p.Evaluate(context.Background(), KindDCA, "BTCUSDT", 0)
	require.NoError(t, err)
	assert.True(t, sig.Empty())
}
