package breakout

import (
	"fmt"
	"time"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/strategy"
)

// Коды причин отказа. Английские строки — часть внешнего контракта
// (статусный API и журнал), не переводятся.
const (
	ReasonDisabled        = "Breakout trading disabled"
	ReasonCooldown        = "Cooldown period active"
	ReasonMaxTrades       = "Max trades per session reached"
	ReasonNoRangeBox      = "Range box not calculated"
	ReasonNoBreakout      = "No breakout detected"
	ReasonConfirmation    = "Confirmation candles not met"
	ReasonVolumeData      = "Insufficient data for volume filter"
	ReasonVolumeFilter    = "Volume below EMA threshold"
	ReasonAntiFake        = "Anti-fake breakout check failed"
)

func reasonSessionInactive(session string) string {
	return fmt.Sprintf("%s not active", session)
}

// CheckBreakoutConditions — упорядоченная цепочка допуска. Обрывается на
// первом отказе, каждый этап даёт собственный код причины.
func (e *Engine) CheckBreakoutConditions(symbol, session string, price float64, bars []models.Bar) Check {
	if !e.cfg.Breakout().Enabled {
		return Check{Reason: ReasonDisabled}
	}

	if !e.IsSessionActive(session) {
		return Check{Reason: reasonSessionInactive(session)}
	}

	if !e.cooldownElapsed(symbol, session) {
		return Check{Reason: ReasonCooldown}
	}

	if !e.underMaxTrades(symbol, session) {
		return Check{Reason: ReasonMaxTrades}
	}

	box := e.rangeBoxFor(symbol, session)
	if box == nil {
		return Check{Reason: ReasonNoRangeBox}
	}

	buffer := e.cfg.Breakout().BufferPercentage / 100
	highBreakout := box.High * (1 + buffer)
	lowBreakout := box.Low * (1 - buffer)

	var signal models.BreakoutSide
	switch {
	case price > highBreakout:
		signal = models.BreakoutLong
	case price < lowBreakout:
		signal = models.BreakoutShort
	default:
		return Check{Reason: ReasonNoBreakout}
	}

	if !e.confirmationCandlesOK(bars, signal) {
		return Check{Reason: ReasonConfirmation}
	}

	filters, reason := e.checkFilters(bars, signal)
	if reason != "" {
		return Check{Reason: reason}
	}

	if !e.antiFakeOK(price, box, signal) {
		return Check{Reason: ReasonAntiFake}
	}

	return Check{
		Valid:    true,
		Signal:   signal,
		RangeBox: box,
		Filters:  filters,
		Price:    price,
	}
}

func (e *Engine) cooldownElapsed(symbol, session string) bool {
	cooldown := time.Duration(e.cfg.Breakout().CooldownMinutes) * time.Minute

	e.mu.RLock()
	last, ok := e.lastTradeTime[key(symbol, session)]
	e.mu.RUnlock()
	if !ok {
		return true
	}
	return e.now().Sub(last) > cooldown
}

func (e *Engine) underMaxTrades(symbol, session string) bool {
	e.mu.RLock()
	count := len(e.sessionTrades[key(symbol, session)])
	e.mu.RUnlock()
	return count < e.cfg.Breakout().MaxTradesPerSession
}

// confirmationCandlesOK требует, чтобы последние k свечей были направлены
// в сторону пробоя.
func (e *Engine) confirmationCandlesOK(bars []models.Bar, signal models.BreakoutSide) bool {
	k := e.cfg.Breakout().ConfirmationCandles
	if k <= 0 {
		return true
	}
	if len(bars) < k {
		return false
	}
	for _, b := range bars[len(bars)-k:] {
		if signal == models.BreakoutLong && b.Close <= b.Open {
			return false
		}
		if signal == models.BreakoutShort && b.Close >= b.Open {
			return false
		}
	}
	return true
}

func (e *Engine) checkFilters(bars []models.Bar, signal models.BreakoutSide) (FilterResult, string) {
	result := FilterResult{}

	// Мульти-таймфреймовый RSI без данных второго таймфрейма не
	// оценивается: фильтр явно выключен в конфигурации по умолчанию,
	// а при включении пропускает всё и помечается как вырожденный.
	if e.cfg.MTFRSI().Enabled {
		result.Passed = append(result.Passed, "MTF_RSI")
	}

	if e.cfg.VolumeFilter().Enabled {
		period := e.cfg.VolumeFilter().EMAPeriod
		if len(bars) < period {
			return result, ReasonVolumeData
		}
		current := bars[len(bars)-1].Volume
		emaVolume := strategy.VolumeEMA(bars[:len(bars)-1], period)
		if emaVolume <= 0 || current <= emaVolume*e.cfg.VolumeFilter().Multiplier {
			return result, ReasonVolumeFilter
		}
		result.VolumeRatio = current / emaVolume
		result.Passed = append(result.Passed, "VOLUME")
	}

	return result, ""
}

// antiFakeOK — дистанционный фильтр: цена должна уйти за край коробки
// дальше минимального порога (не шум), но ближе максимального (не
// пропущенный вход).
func (e *Engine) antiFakeOK(price float64, box *RangeBox, signal models.BreakoutSide) bool {
	if !e.cfg.AntiFake().RetestEnabled {
		return true
	}

	maxSlippage := e.cfg.AntiFake().MaxSlippage / 100
	minDistance := e.cfg.AntiFake().MinDistanceFromBox / 100

	if signal == models.BreakoutLong {
		distance := (price - box.High) / box.High
		return distance >= minDistance && distance <= maxSlippage
	}
	distance := (box.Low - price) / box.Low
	return distance >= minDistance && distance <= maxSlippage
}
