package trader

import (
	"context"
	"fmt"
	"time"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/metrics"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/strategy"
)

// executeTrade размещает ордер по сигналу. Ошибки исполнения не
// останавливают цикл: они логируются и уходят в уведомления.
func (t *Trader) executeTrade(ctx context.Context, signal models.Signal, bars []models.Bar) {
	log := t.logEntry().WithFields(map[string]interface{}{
		"action":   signal.Action,
		"quantity": signal.Quantity,
		"price":    signal.Price,
		"strategy": signal.Strategy,
	})

	if signal.Action != models.OrderSideBuy && signal.Action != models.OrderSideSell {
		log.Warn("Сигнал с неизвестным действием, ордер не размещён.")
		return
	}
	if signal.Quantity <= 0 || signal.Price <= 0 {
		log.Warn("Сигнал с некорректным количеством или ценой, ордер не размещён.")
		return
	}

	refPrice := t.referencePrice(ctx, signal)
	if refPrice > 0 && refPrice != signal.Price {
		log = log.WithField("ref_price", refPrice)
	}

	req := models.OrderRequest{
		Symbol:     signal.Symbol,
		Side:       signal.Action,
		Quantity:   signal.Quantity,
		Price:      signal.Price,
		StopLoss:   signal.StopLoss,
		TakeProfit: signal.TakeProfit,
		Leverage:   t.cfg.Trading().Leverage,
		MarginType: t.cfg.Trading().MarginType,
	}

	result, err := t.placeOrder(ctx, signal.OrderKind, req)
	if err != nil {
		metrics.Orders.WithLabelValues(string(signal.Action), "error").Inc()
		log.WithError(err).Error("Не удалось разместить ордер.")
		t.notifier.Notify("❌ Ордер не выполнен", fmt.Sprintf("%s %s %.8f: %v", signal.Action, signal.Symbol, signal.Quantity, err))
		return
	}

	metrics.Orders.WithLabelValues(string(signal.Action), string(result.Status)).Inc()
	log.WithField("order_id", result.OrderID).Info("Ордер размещён.")
	t.notifier.Notify("✅ Ордер размещён", fmt.Sprintf("%s %s %.8f по цене %.2f (ID: %s)",
		signal.Action, signal.Symbol, signal.Quantity, signal.Price, result.OrderID))

	record := models.TradeRecord{
		Symbol:     signal.Symbol,
		Side:       signal.Action,
		Quantity:   signal.Quantity,
		Price:      signal.Price,
		OrderID:    result.OrderID,
		Strategy:   signal.Strategy,
		Status:     result.Status,
		StopLoss:   signal.StopLoss,
		TakeProfit: signal.TakeProfit,
		CreatedAt:  time.Now(),
	}
	if err := t.store.RecordTradeHistory(t.userID, record); err != nil {
		log.WithError(err).Error("Не удалось сохранить сделку в истории.")
	}

	t.registerBreakoutTrade(signal, bars)

	// Мониторинг выполняется в рамках того же прохода: следующий проход
	// не начинается, пока этот не завершён. Пауза прерывается отменой.
	t.monitorOrder(ctx, result.OrderID, signal.Symbol)
}

// placeOrder выбирает метод шлюза по типу ордера. Неизвестный тип
// исполняется по рынку.
func (t *Trader) placeOrder(ctx context.Context, kind models.OrderKind, req models.OrderRequest) (models.OrderResult, error) {
	switch kind {
	case models.OrderKindLimit:
		return t.gw.PlaceLimitOrder(ctx, req)
	case models.OrderKindStopLoss:
		return t.gw.PlaceStopLossOrder(ctx, req)
	case models.OrderKindTakeProfit:
		return t.gw.PlaceTakeProfitOrder(ctx, req)
	case models.OrderKindTrailingStop:
		req.TrailingRate = t.cfg.Risk().TrailingPercentage
		return t.gw.PlaceTrailingStopOrder(ctx, req)
	default:
		req.IOC = true
		return t.gw.PlaceMarketOrder(ctx, req)
	}
}

// referencePrice берёт цену из WS-потока, а при его простое — из REST.
// Нулевой результат означает, что свежей цены нет.
func (t *Trader) referencePrice(ctx context.Context, signal models.Signal) float64 {
	if t.feed != nil {
		if price, ok := t.feed.LastPrice(); ok {
			return price
		}
	}
	price, err := t.gw.GetPrice(ctx, signal.Symbol)
	if err != nil {
		t.logEntry().WithError(err).Warn("Не удалось получить текущую цену.")
		return 0
	}
	return price
}

// registerBreakoutTrade регистрирует исполненный пробойный вход в
// сессионных счётчиках, чтобы работали кулдаун и лимит сделок.
func (t *Trader) registerBreakoutTrade(signal models.Signal, bars []models.Bar) {
	if t.breakout == nil || signal.Strategy != string(strategy.KindBreakout) || signal.Session == "" {
		return
	}
	side := models.BreakoutLong
	if signal.Action == models.OrderSideSell {
		side = models.BreakoutShort
	}
	result := t.breakout.ExecuteTrade(signal.Symbol, signal.Session, side, signal.Price, signal.Quantity, bars)
	if !result.Success {
		t.logEntry().WithField("reason", result.Reason).Warn("Пробойная сделка не зарегистрирована.")
	}
}

// monitorOrder один раз проверяет статус ордера после короткой паузы.
// Ошибки мониторинга никогда не влияют на торговый цикл.
func (t *Trader) monitorOrder(ctx context.Context, orderID, symbol string) {
	log := t.logEntry().WithField("order_id", orderID)

	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Duration(t.cfg.Watchdog().MonitorDelaySec) * time.Second):
	}

	result, err := t.gw.GetOrder(ctx, orderID, symbol)
	if err != nil {
		log.WithError(err).Warn("Не удалось проверить статус ордера.")
		return
	}

	switch result.Status {
	case models.OrderStatusFilled:
		log.WithField("avg_price", result.AvgPrice).Info("Ордер исполнен.")
		t.notifier.Notify("✅ Ордер исполнен", fmt.Sprintf("Ордер %s исполнен по цене %.2f", orderID, result.AvgPrice))
	case models.OrderStatusPartiallyFilled, models.OrderStatusPending, models.OrderStatusNew:
		log.WithField("executed_qty", result.ExecutedQty).Info("Ордер ещё исполняется.")
	case models.OrderStatusCanceled, models.OrderStatusRejected:
		log.Warn("Ордер отменён или отклонён.")
		t.notifier.Notify("⚠️ Ордер не исполнен", fmt.Sprintf("Ордер %s: статус %s", orderID, result.Status))
	default:
		log.WithField("status", result.Status).Debug("Неизвестный статус ордера.")
	}
}
