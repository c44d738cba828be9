package breakout

import (
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
)

// ComputeRangeBox считает диапазон первых N минут сессии. Возвращает nil,
// если сессия неактивна или свечей недостаточно. Повторный вызов в рамках
// одного вхождения сессии с теми же свечами даёт тот же результат.
func (e *Engine) ComputeRangeBox(symbol, session string, bars []models.Bar) *RangeBox {
	if !e.IsSessionActive(session) {
		return nil
	}

	start := e.sessionStart(session)
	lookback := e.sessionLookback(session)

	var sessionBars []models.Bar
	for _, b := range bars {
		if !b.Time.Before(start) {
			sessionBars = append(sessionBars, b)
		}
	}
	if len(sessionBars) < 2 {
		e.log.WithComponent("breakout").WithField("symbol", symbol).Debug("Недостаточно свечей для диапазона сессии.")
		return nil
	}

	if len(sessionBars) > lookback {
		sessionBars = sessionBars[:lookback]
	}

	high := sessionBars[0].High
	low := sessionBars[0].Low
	for _, b := range sessionBars[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}

	box := &RangeBox{
		Symbol:       symbol,
		Session:      session,
		High:         high,
		Low:          low,
		Range:        high - low,
		SessionStart: start,
		Lookback:     lookback,
		ComputedAt:   e.now(),
	}

	e.mu.Lock()
	e.rangeBoxes[key(symbol, session)] = box
	e.mu.Unlock()

	e.log.WithComponent("breakout").WithFields(map[string]interface{}{
		"symbol":  symbol,
		"session": session,
		"high":    high,
		"low":     low,
	}).Info("Диапазон сессии рассчитан.")

	return box
}

// rangeBoxFor возвращает диапазон для ключа, отбрасывая коробку прошлого
// вхождения сессии: устаревший диапазон через границу сессии — дефект.
func (e *Engine) rangeBoxFor(symbol, session string) *RangeBox {
	e.mu.RLock()
	box := e.rangeBoxes[key(symbol, session)]
	e.mu.RUnlock()
	if box == nil {
		return nil
	}
	if !box.SessionStart.Equal(e.sessionStart(session)) {
		return nil
	}
	return box
}
