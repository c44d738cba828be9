package trader

import (
	"context"
	"time"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/metrics"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
)

// recordPortfolio снимает слепок портфеля после торговых действий.
// Любая ошибка здесь — только запись в журнал.
func (t *Trader) recordPortfolio(ctx context.Context) {
	log := t.logEntry()

	balances, err := t.gw.GetBalances(ctx)
	if err != nil {
		log.WithError(err).Warn("Не удалось получить балансы для слепка портфеля.")
		return
	}
	positions, err := t.gw.GetPositions(ctx, t.Pair())
	if err != nil {
		log.WithError(err).Warn("Не удалось получить позиции для слепка портфеля.")
		return
	}

	var total, pnl float64
	for _, b := range balances {
		total += b.Total
	}
	for _, p := range positions {
		pnl += p.UnrealizedPnL
	}

	metrics.Equity.Set(total)

	snap := models.PortfolioSnapshot{
		TotalValue:     total,
		TotalPnL:       pnl,
		PositionsCount: len(positions),
		Timestamp:      time.Now(),
	}
	if err := t.store.RecordPortfolioSnapshot(t.userID, snap); err != nil {
		log.WithError(err).Warn("Не удалось сохранить слепок портфеля.")
	}
}
