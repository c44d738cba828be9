package strategy

import (
	"context"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
)

const (
	rsiPeriod     = 14
	rsiOversold   = 30
	rsiOverbought = 70
	rsiNeutral    = 50

	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

func (p *Provider) evalRSI(ctx context.Context, symbol string, balance float64) (models.Signal, error) {
	bars, err := p.bars(ctx, symbol)
	if err != nil {
		return models.Signal{}, err
	}
	if len(bars) < rsiPeriod+1 {
		return models.Signal{}, nil
	}

	rsi := RSI(bars, rsiPeriod)
	price := bars[len(bars)-1].Close

	switch {
	case rsi < rsiOversold:
		return p.entrySignal(models.OrderSideBuy, symbol, price, balance, string(KindRSI)), nil
	case rsi > rsiOverbought:
		return p.entrySignal(models.OrderSideSell, symbol, price, balance, string(KindRSI)), nil
	}
	return models.Signal{}, nil
}

func (p *Provider) evalRSIMultiTF(ctx context.Context, symbol string, balance float64) (models.Signal, error) {
	bars, err := p.bars(ctx, symbol)
	if err != nil {
		return models.Signal{}, err
	}
	longBars, err := p.gw.GetMarketData(ctx, symbol, p.cfg.MTFRSI().SecondTimeframe, p.cfg.Trading().BarLimit)
	if err != nil {
		return models.Signal{}, err
	}
	if len(bars) < rsiPeriod+1 || len(longBars) < rsiPeriod+1 {
		return models.Signal{}, nil
	}

	shortRSI := RSI(bars, rsiPeriod)
	longRSI := RSI(longBars, rsiPeriod)
	price := bars[len(bars)-1].Close

	// Вход по младшему таймфрейму с подтверждением трендом старшего.
	switch {
	case shortRSI < rsiOversold && longRSI > rsiNeutral:
		return p.entrySignal(models.OrderSideBuy, symbol, price, balance, string(KindRSIMultiTF)), nil
	case shortRSI > rsiOverbought && longRSI < rsiNeutral:
		return p.entrySignal(models.OrderSideSell, symbol, price, balance, string(KindRSIMultiTF)), nil
	}
	return models.Signal{}, nil
}

func (p *Provider) evalVolumeFilter(ctx context.Context, symbol string, balance float64) (models.Signal, error) {
	bars, err := p.bars(ctx, symbol)
	if err != nil {
		return models.Signal{}, err
	}
	period := p.cfg.VolumeFilter().EMAPeriod
	if len(bars) < period || len(bars) < rsiPeriod+1 {
		return models.Signal{}, nil
	}

	current := bars[len(bars)-1]
	emaVolume := VolumeEMA(bars[:len(bars)-1], period)
	if emaVolume <= 0 || current.Volume < emaVolume*p.cfg.VolumeFilter().Multiplier {
		return models.Signal{}, nil
	}

	rsi := RSI(bars, rsiPeriod)
	switch {
	case rsi < rsiOversold:
		return p.entrySignal(models.OrderSideBuy, symbol, current.Close, balance, string(KindVolumeFilter)), nil
	case rsi > rsiOverbought:
		return p.entrySignal(models.OrderSideSell, symbol, current.Close, balance, string(KindVolumeFilter)), nil
	}
	return models.Signal{}, nil
}

func (p *Provider) evalAdvanced(ctx context.Context, symbol string, balance float64) (models.Signal, error) {
	bars, err := p.bars(ctx, symbol)
	if err != nil {
		return models.Signal{}, err
	}
	if len(bars) < macdSlow+macdSignal {
		return models.Signal{}, nil
	}

	rsi := RSI(bars, rsiPeriod)
	macd, signalLine := MACD(bars, macdFast, macdSlow, macdSignal)
	current := bars[len(bars)-1]
	emaVolume := VolumeEMA(bars[:len(bars)-1], p.cfg.VolumeFilter().EMAPeriod)
	volumeOK := emaVolume > 0 && current.Volume > emaVolume

	switch {
	case rsi < rsiOversold && macd > signalLine && volumeOK:
		return p.entrySignal(models.OrderSideBuy, symbol, current.Close, balance, string(KindAdvanced)), nil
	case rsi > rsiOverbought && macd < signalLine && volumeOK:
		return p.entrySignal(models.OrderSideSell, symbol, current.Close, balance, string(KindAdvanced)), nil
	}
	return models.Signal{}, nil
}

// evalGrid: сеточная торговля живёт на стороне биржи как отдельный бот,
// автономный цикл для неё сигналов не генерирует.
func (p *Provider) evalGrid(ctx context.Context, symbol string, balance float64) (models.Signal, error) {
	p.log.WithStrategy(string(KindGrid)).Debug("Сеточная стратегия не генерирует сигналы в автономном цикле.")
	return models.Signal{}, nil
}

func (p *Provider) evalDCA(ctx context.Context, symbol string, balance float64) (models.Signal, error) {
	price, err := p.gw.GetPrice(ctx, symbol)
	if err != nil {
		return models.Signal{}, err
	}
	return p.entrySignal(models.OrderSideBuy, symbol, price, balance, string(KindDCA)), nil
}

func (p *Provider) evalBreakout(ctx context.Context, symbol string, balance float64) (models.Signal, error) {
	if p.breakout == nil {
		return models.Signal{}, nil
	}
	bars, err := p.bars(ctx, symbol)
	if err != nil {
		return models.Signal{}, err
	}
	if len(bars) == 0 {
		return models.Signal{}, nil
	}
	price := bars[len(bars)-1].Close

	sig, ok := p.breakout.Evaluate(symbol, price, bars)
	if !ok {
		return models.Signal{}, nil
	}
	sig.Quantity = p.positionSize(balance, price)
	return sig, nil
}

func (p *Provider) entrySignal(side models.OrderSide, symbol string, price, balance float64, name string) models.Signal {
	qty := p.positionSize(balance, price)
	if qty <= 0 {
		return models.Signal{}
	}

	slPct := p.cfg.Risk().StopLossPercentage / 100
	tpPct := p.cfg.Risk().TakeProfitPercentage / 100
	var stopLoss, takeProfit float64
	if side == models.OrderSideBuy {
		stopLoss = price * (1 - slPct)
		takeProfit = price * (1 + tpPct)
	} else {
		stopLoss = price * (1 + slPct)
		takeProfit = price * (1 - tpPct)
	}

	return models.Signal{
		Action:     side,
		Symbol:     symbol,
		Quantity:   qty,
		Price:      price,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		OrderKind:  models.OrderKindMarket,
		Strategy:   name,
	}
}
