package exchange

import (
	"context"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
)

type Balance struct {
	Asset     string
	Total     float64
	Available float64
}

type Position struct {
	Symbol        string
	Size          float64
	EntryPrice    float64
	UnrealizedPnL float64
}

// Gateway — подписанный транспорт к бирже. Повторы, лимиты запросов и
// подпись полностью на его стороне; ядро трактует ошибку как терминальную.
type Gateway interface {
	GetMarketData(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error)
	GetPrice(ctx context.Context, symbol string) (float64, error)
	GetBalances(ctx context.Context) ([]Balance, error)
	GetPositions(ctx context.Context, symbol string) ([]Position, error)

	PlaceMarketOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)
	PlaceLimitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)
	PlaceStopLossOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)
	PlaceTakeProfitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)
	PlaceTrailingStopOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)

	GetOrder(ctx context.Context, orderID, symbol string) (models.OrderResult, error)
}
