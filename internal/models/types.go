package models

import "time"

type OrderSide string
type OrderKind string
type OrderStatus string
type TradeStatus string
type BreakoutSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"

	OrderKindMarket       OrderKind = "MARKET"
	OrderKindLimit        OrderKind = "LIMIT"
	OrderKindStopLoss     OrderKind = "STOP_LOSS"
	OrderKindTakeProfit   OrderKind = "TAKE_PROFIT"
	OrderKindTrailingStop OrderKind = "TRAILING_STOP"

	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"

	TradeStatusOpen     TradeStatus = "OPEN"
	TradeStatusClosed   TradeStatus = "CLOSED"
	TradeStatusCanceled TradeStatus = "CANCELED"

	BreakoutLong  BreakoutSide = "LONG"
	BreakoutShort BreakoutSide = "SHORT"
)

type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

type Signal struct {
	Action     OrderSide `json:"action"`
	Symbol     string    `json:"symbol"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	TakeProfit float64   `json:"take_profit,omitempty"`
	OrderKind  OrderKind `json:"order_kind,omitempty"`
	Strategy   string    `json:"strategy,omitempty"`
	Session    string    `json:"session,omitempty"`
	Comment    string    `json:"comment,omitempty"`
}

// Empty сообщает, что стратегия не дала сигнала.
func (s Signal) Empty() bool {
	return s.Action == ""
}

type OrderRequest struct {
	Symbol        string    `json:"symbol"`
	Side          OrderSide `json:"side"`
	Quantity      float64   `json:"quantity"`
	Price         float64   `json:"price,omitempty"`
	StopLoss      float64   `json:"stop_loss,omitempty"`
	TakeProfit    float64   `json:"take_profit,omitempty"`
	TrailingRate  float64   `json:"trailing_rate,omitempty"`
	Leverage      int       `json:"leverage,omitempty"`
	MarginType    string    `json:"margin_type,omitempty"`
	ClientOrderID string    `json:"client_order_id,omitempty"`
	IOC           bool      `json:"ioc,omitempty"`
}

type OrderResult struct {
	OrderID     string      `json:"order_id"`
	Status      OrderStatus `json:"status"`
	ExecutedQty float64     `json:"executed_qty"`
	AvgPrice    float64     `json:"avg_price"`
}

type TradeRecord struct {
	Symbol     string      `json:"symbol"`
	Side       OrderSide   `json:"side"`
	Quantity   float64     `json:"quantity"`
	Price      float64     `json:"price"`
	OrderID    string      `json:"order_id"`
	Strategy   string      `json:"strategy"`
	Status     OrderStatus `json:"status"`
	StopLoss   float64     `json:"stop_loss,omitempty"`
	TakeProfit float64     `json:"take_profit,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

type PortfolioSnapshot struct {
	TotalValue     float64   `json:"total_value"`
	TotalPnL       float64   `json:"total_pnl"`
	PositionsCount int       `json:"positions_count"`
	Timestamp      time.Time `json:"timestamp"`
}
