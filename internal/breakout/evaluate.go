package breakout

import (
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/metrics"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
)

// Evaluate — адаптер для провайдера стратегий: перебирает сессии, при
// необходимости считает диапазон и возвращает сигнал первой сессии,
// прошедшей цепочку допуска. Отказы не шумят уведомлениями, только
// журнал и метрика.
func (e *Engine) Evaluate(symbol string, price float64, bars []models.Bar) (models.Signal, bool) {
	for _, session := range e.Sessions() {
		if !e.IsSessionActive(session) {
			continue
		}

		if e.rangeBoxFor(symbol, session) == nil {
			e.ComputeRangeBox(symbol, session, bars)
		}

		check := e.CheckBreakoutConditions(symbol, session, price, bars)
		if !check.Valid {
			metrics.BreakoutRejections.WithLabelValues(check.Reason).Inc()
			e.log.WithComponent("breakout").WithFields(map[string]interface{}{
				"symbol":  symbol,
				"session": session,
				"reason":  check.Reason,
			}).Debug("Пробой не допущен.")
			continue
		}

		risk := e.CalculateRiskManagement(symbol, price, check.Signal, check.RangeBox)

		side := models.OrderSideBuy
		if check.Signal == models.BreakoutShort {
			side = models.OrderSideSell
		}

		return models.Signal{
			Action:     side,
			Symbol:     symbol,
			Price:      price,
			StopLoss:   risk.StopLoss,
			TakeProfit: risk.TakeProfit,
			OrderKind:  models.OrderKindMarket,
			Strategy:   "BOT_2025",
			Session:    session,
		}, true
	}
	return models.Signal{}, false
}
