package breakout

import (
	"fmt"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
)

type TradeResult struct {
	Success bool   `json:"success"`
	TradeID string `json:"trade_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// ExecuteTrade повторно валидирует условия, считает риск-параметры и
// регистрирует сделку в счётчиках сессии. Вызывается после успешной
// постановки ордера на бирже.
func (e *Engine) ExecuteTrade(symbol, session string, signal models.BreakoutSide, entryPrice, size float64, bars []models.Bar) TradeResult {
	check := e.CheckBreakoutConditions(symbol, session, entryPrice, bars)
	if !check.Valid {
		return TradeResult{Reason: check.Reason}
	}

	risk := e.CalculateRiskManagement(symbol, entryPrice, signal, check.RangeBox)
	now := e.now()

	trade := &ActiveTrade{
		ID:         fmt.Sprintf("%s_%s_%d", symbol, session, now.Unix()),
		Symbol:     symbol,
		Session:    session,
		Signal:     signal,
		EntryPrice: entryPrice,
		Size:       size,
		Risk:       risk,
		EntryTime:  now,
		Status:     models.TradeStatusOpen,
	}

	k := key(symbol, session)
	e.mu.Lock()
	e.activeTrades[trade.ID] = trade
	e.sessionTrades[k] = append(e.sessionTrades[k], trade.ID)
	e.lastTradeTime[k] = now
	e.mu.Unlock()

	e.log.WithComponent("breakout").WithFields(map[string]interface{}{
		"symbol":   symbol,
		"session":  session,
		"trade_id": trade.ID,
		"signal":   signal,
		"entry":    entryPrice,
	}).Info("Пробойная сделка зарегистрирована.")

	return TradeResult{Success: true, TradeID: trade.ID}
}

// SetTradeStatus переводит сделку в новое состояние по результату
// мониторинга ордера.
func (e *Engine) SetTradeStatus(tradeID string, status models.TradeStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if trade, ok := e.activeTrades[tradeID]; ok {
		trade.Status = status
	}
}
