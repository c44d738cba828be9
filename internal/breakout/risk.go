package breakout

import (
	"math"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
)

// CalculateRiskManagement выводит уровни стоп-лосса, тейк-профита и
// трейлинга. Функция чистая: одинаковый вход всегда даёт одинаковый выход.
func (e *Engine) CalculateRiskManagement(symbol string, entryPrice float64, signal models.BreakoutSide, box *RangeBox) RiskParams {
	slPct := e.cfg.Risk().StopLossPercentage / 100

	var stopLoss float64
	if e.cfg.Risk().StopLossUseBoxOpposite && box != nil {
		if signal == models.BreakoutLong {
			stopLoss = box.Low * (1 - slPct)
		} else {
			stopLoss = box.High * (1 + slPct)
		}
	} else {
		if signal == models.BreakoutLong {
			stopLoss = entryPrice * (1 - slPct)
		} else {
			stopLoss = entryPrice * (1 + slPct)
		}
	}

	tpPct := e.cfg.Risk().TakeProfitPercentage / 100
	var takeProfit float64
	if signal == models.BreakoutLong {
		takeProfit = entryPrice * (1 + tpPct)
	} else {
		takeProfit = entryPrice * (1 - tpPct)
	}

	var riskReward float64
	if stopLoss != entryPrice {
		riskReward = math.Abs(takeProfit-entryPrice) / math.Abs(stopLoss-entryPrice)
	}

	return RiskParams{
		StopLoss:         stopLoss,
		TakeProfit:       takeProfit,
		TrailingStep:     e.cfg.Risk().TrailingStepPct / 100,
		TrailingDistance: e.cfg.Risk().TrailingDistancePct / 100,
		RiskReward:       riskReward,
	}
}
