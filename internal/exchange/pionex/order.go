package pionex

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
	"github.com/google/uuid"
)

func (c *Client) PlaceMarketOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	params := c.orderParams(req, "MARKET")
	params["IOC"] = "true"
	return c.placeOrder(ctx, params)
}

func (c *Client) PlaceLimitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	params := c.orderParams(req, "LIMIT")
	params["price"] = formatFloat(req.Price)
	return c.placeOrder(ctx, params)
}

func (c *Client) PlaceStopLossOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	params := c.orderParams(req, "STOP_MARKET")
	params["activationPrice"] = formatFloat(req.StopLoss)
	params["workingType"] = "MARK_PRICE"
	return c.placeOrder(ctx, params)
}

func (c *Client) PlaceTakeProfitOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	params := c.orderParams(req, "TAKE_PROFIT_MARKET")
	params["activationPrice"] = formatFloat(req.TakeProfit)
	params["workingType"] = "MARK_PRICE"
	return c.placeOrder(ctx, params)
}

func (c *Client) PlaceTrailingStopOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	params := c.orderParams(req, "TRAILING_STOP_MARKET")
	params["callbackRate"] = formatFloat(req.TrailingRate)
	params["workingType"] = "MARK_PRICE"
	return c.placeOrder(ctx, params)
}

func (c *Client) GetOrder(ctx context.Context, orderID, symbol string) (models.OrderResult, error) {
	params := map[string]string{
		"orderId": orderID,
		"symbol":  formatSymbol(symbol),
	}

	var resp apiResponse[orderData]
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/trade/order", params, true, &resp); err != nil {
		return models.OrderResult{}, err
	}

	return orderResultFrom(resp.Data), nil
}

func (c *Client) orderParams(req models.OrderRequest, orderType string) map[string]string {
	clientOrderID := req.ClientOrderID
	if clientOrderID == "" {
		clientOrderID = uuid.New().String()
	}

	params := map[string]string{
		"clientOrderId": clientOrderID,
		"symbol":        formatSymbol(req.Symbol),
		"side":          string(req.Side),
		"type":          orderType,
		"size":          formatFloat(req.Quantity),
	}
	if req.StopLoss > 0 {
		params["stopLoss"] = formatFloat(req.StopLoss)
	}
	if req.TakeProfit > 0 {
		params["takeProfit"] = formatFloat(req.TakeProfit)
	}
	if req.Leverage > 0 {
		params["leverage"] = strconv.Itoa(req.Leverage)
	}
	if req.MarginType != "" {
		params["marginType"] = req.MarginType
	}
	return params
}

func (c *Client) placeOrder(ctx context.Context, params map[string]string) (models.OrderResult, error) {
	c.log.WithComponent("pionex").WithFields(map[string]interface{}{
		"symbol": params["symbol"],
		"side":   params["side"],
		"type":   params["type"],
		"size":   params["size"],
	}).Info("Отправка ордера.")

	var resp apiResponse[orderData]
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/trade/order", params, true, &resp); err != nil {
		return models.OrderResult{}, err
	}

	return orderResultFrom(resp.Data), nil
}

func orderResultFrom(data orderData) models.OrderResult {
	status := models.OrderStatus(data.Status)
	if status == "" {
		status = models.OrderStatusNew
	}
	return models.OrderResult{
		OrderID:     strconv.FormatInt(data.OrderID, 10),
		Status:      status,
		ExecutedQty: parseFloat(data.ExecutedQty),
		AvgPrice:    parseFloat(data.AvgPrice),
	}
}
