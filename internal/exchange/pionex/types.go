package pionex

type klinesData struct {
	Klines []klineEntry `json:"klines"`
}

type klineEntry struct {
	Time   int64  `json:"time"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

type tickersData struct {
	Tickers []tickerEntry `json:"tickers"`
}

type tickerEntry struct {
	Symbol string `json:"symbol"`
	Close  string `json:"close"`
}

type balancesData struct {
	Balances []balanceEntry `json:"balances"`
}

type balanceEntry struct {
	Coin   string `json:"coin"`
	Total  string `json:"total"`
	Free   string `json:"free"`
	Frozen string `json:"frozen"`
}

type positionsData struct {
	Positions []positionEntry `json:"positions"`
}

type positionEntry struct {
	Symbol        string `json:"symbol"`
	Size          string `json:"size"`
	EntryPrice    string `json:"entryPrice"`
	UnrealizedPnl string `json:"unrealizedPnl"`
}

type orderData struct {
	OrderID     int64  `json:"orderId"`
	Symbol      string `json:"symbol"`
	Status      string `json:"status"`
	ExecutedQty string `json:"executedQty"`
	AvgPrice    string `json:"avgPrice"`
}
