package trader

import (
	"context"
	"fmt"
	"time"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/metrics"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/strategy"
)

func (t *Trader) runLoop(ctx context.Context, done chan struct{}) {
	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		metrics.Running.WithLabelValues(t.userLabel()).Set(0)
		close(done)
	}()

	t.logEntry().Info("Торговый цикл запущен.")

	for {
		if !t.IsEnabled() {
			t.logEntry().Info("Автоторговля выключена, цикл завершается.")
			return
		}

		wait := time.Duration(t.cfg.Watchdog().HeartbeatSec) * time.Second
		if err := t.safeCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.Cycles.WithLabelValues("error").Inc()
			t.logEntry().WithError(err).Error("Ошибка торгового цикла.")
			t.notifier.Notify("⚠️ Ошибка торгового цикла", fmt.Sprintf("Ошибка: %v. Повтор через %d сек.", err, t.cfg.Watchdog().ErrorBackoffSec))
			wait = time.Duration(t.cfg.Watchdog().ErrorBackoffSec) * time.Second
		}

		select {
		case <-ctx.Done():
			t.logEntry().Info("Торговый цикл остановлен.")
			return
		case <-time.After(wait):
		}
	}
}

// safeCycle гасит панику одного прохода: цикл живёт дальше с увеличенной
// паузой, как и при обычной ошибке.
func (t *Trader) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("паника в торговом цикле: %v", r)
		}
	}()
	return t.runCycle(ctx)
}

func (t *Trader) runCycle(ctx context.Context) error {
	log := t.logEntry()
	symbol := t.Pair()

	if !t.tradingHoursActive(time.Now()) {
		log.Debug("Вне торговых часов, проход пропущен.")
		metrics.Cycles.WithLabelValues("skipped").Inc()
		return nil
	}

	bars, err := t.gw.GetMarketData(ctx, symbol, t.cfg.Trading().Interval, t.cfg.Trading().BarLimit)
	if err != nil {
		return fmt.Errorf("получение рыночных данных: %w", err)
	}
	if len(bars) == 0 {
		log.Warn("Рыночные данные пусты, проход пропущен.")
		metrics.Cycles.WithLabelValues("skipped").Inc()
		return nil
	}

	balance, err := t.quoteBalance(ctx, symbol)
	if err != nil {
		log.WithError(err).Warn("Не удалось получить баланс, размер позиции будет нулевым.")
		balance = 0
	}

	kind, ok := t.strategyKind()
	if !ok {
		log.WithField("strategy", string(kind)).Warn("Неизвестная стратегия, проход пропущен.")
		metrics.Cycles.WithLabelValues("skipped").Inc()
		return nil
	}

	signal, err := t.provider.Evaluate(ctx, kind, symbol, balance)
	if err != nil {
		return fmt.Errorf("оценка стратегии %s: %w", kind, err)
	}

	if signal.Empty() {
		log.Debug("Сигналов нет.")
		metrics.Cycles.WithLabelValues("ok").Inc()
		return nil
	}

	t.executeTrade(ctx, signal, bars)
	t.recordPortfolio(ctx)
	metrics.Cycles.WithLabelValues("ok").Inc()
	return nil
}

// strategyKind берёт стратегию из настроек пользователя, а при их
// отсутствии — из конфигурации.
func (t *Trader) strategyKind() (strategy.Kind, bool) {
	name := t.cfg.Trading().Strategy
	if settings := t.store.GetUserSettings(t.userID); settings.DefaultStrategy != "" {
		name = settings.DefaultStrategy
	}
	return strategy.ParseKind(name)
}

func (t *Trader) quoteBalance(ctx context.Context, symbol string) (float64, error) {
	balances, err := t.gw.GetBalances(ctx)
	if err != nil {
		return 0, err
	}
	asset := quoteAsset(symbol)
	for _, b := range balances {
		if b.Asset == asset {
			return b.Available, nil
		}
	}
	return 0, nil
}

func quoteAsset(symbol string) string {
	for _, quote := range []string{"USDT", "USDC", "BUSD"} {
		if len(symbol) > len(quote) && symbol[len(symbol)-len(quote):] == quote {
			return quote
		}
	}
	return "USDT"
}
