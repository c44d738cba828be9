package pionex

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
)

const maxKlineLimit = 500

func (c *Client) GetMarketData(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error) {
	if limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	params := map[string]string{
		"symbol":   formatSymbol(symbol),
		"interval": formatInterval(interval),
		"limit":    strconv.Itoa(limit),
	}

	var resp apiResponse[klinesData]
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/market/klines", params, false, &resp); err != nil {
		return nil, err
	}

	bars := make([]models.Bar, 0, len(resp.Data.Klines))
	for _, k := range resp.Data.Klines {
		bars = append(bars, models.Bar{
			Time:   time.UnixMilli(k.Time),
			Open:   parseFloat(k.Open),
			High:   parseFloat(k.High),
			Low:    parseFloat(k.Low),
			Close:  parseFloat(k.Close),
			Volume: parseFloat(k.Volume),
		})
	}

	// Биржа отдаёт свечи от новых к старым, разворачиваем в хронологию.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, nil
}

func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	formatted := formatSymbol(symbol)
	params := map[string]string{
		"symbol": formatted,
	}

	var resp apiResponse[tickersData]
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/market/tickers", params, false, &resp); err != nil {
		return 0, err
	}

	for _, t := range resp.Data.Tickers {
		if t.Symbol == formatted {
			price := parseFloat(t.Close)
			if price <= 0 {
				return 0, fmt.Errorf("Нулевая цена тикера для %s", symbol)
			}
			return price, nil
		}
	}
	return 0, fmt.Errorf("Тикер не найден: %s", symbol)
}
