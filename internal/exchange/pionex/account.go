package pionex

import (
	"context"
	"net/http"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/exchange"
)

func (c *Client) GetBalances(ctx context.Context) ([]exchange.Balance, error) {
	var resp apiResponse[balancesData]
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/account/balances", nil, true, &resp); err != nil {
		return nil, err
	}

	balances := make([]exchange.Balance, 0, len(resp.Data.Balances))
	for _, b := range resp.Data.Balances {
		balances = append(balances, exchange.Balance{
			Asset:     b.Coin,
			Total:     parseFloat(b.Total),
			Available: parseFloat(b.Free),
		})
	}
	return balances, nil
}

func (c *Client) GetPositions(ctx context.Context, symbol string) ([]exchange.Position, error) {
	params := map[string]string{}
	if symbol != "" {
		params["symbol"] = formatSymbol(symbol)
	}

	var resp apiResponse[positionsData]
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/account/positions", params, true, &resp); err != nil {
		return nil, err
	}

	positions := make([]exchange.Position, 0, len(resp.Data.Positions))
	for _, p := range resp.Data.Positions {
		positions = append(positions, exchange.Position{
			Symbol:        p.Symbol,
			Size:          parseFloat(p.Size),
			EntryPrice:    parseFloat(p.EntryPrice),
			UnrealizedPnL: parseFloat(p.UnrealizedPnl),
		})
	}
	return positions, nil
}
