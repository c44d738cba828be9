package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/logger"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// PriceFeed держит публичный поток сделок pionex и отдаёт последнюю цену.
// Используется трейдером как быстрый источник референсной цены; при
// устаревании данных трейдер откатывается на REST.
type PriceFeed struct {
	url    string
	symbol string
	log    *logger.Logger

	connMu   sync.Mutex
	conn     *websocket.Conn
	stopCh   chan struct{}
	stopOnce sync.Once

	mu        sync.RWMutex
	lastPrice float64
	updatedAt time.Time

	reconnectMin time.Duration
	reconnectMax time.Duration
	staleAfter   time.Duration
}

type message struct {
	Topic  string          `json:"topic"`
	Symbol string          `json:"symbol"`
	Op     string          `json:"op"`
	Data   json.RawMessage `json:"data"`
}

type subscribeMessage struct {
	Op     string `json:"op"`
	Topic  string `json:"topic"`
	Symbol string `json:"symbol"`
}

type tradeEntry struct {
	Price string `json:"price"`
}

func NewPriceFeed(url, symbol string, log *logger.Logger) *PriceFeed {
	return &PriceFeed{
		url:          url,
		symbol:       symbol,
		log:          log,
		stopCh:       make(chan struct{}),
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
		staleAfter:   10 * time.Second,
	}
}

func (w *PriceFeed) Connect(ctx context.Context) error {
	w.logEntry().WithField("url", w.url).Info("Подключение к WS.")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("Не удалось подключиться к WS: %w", err)
	}

	conn.SetReadLimit(2 << 20)
	w.setConn(conn)

	if err := w.subscribe(conn); err != nil {
		return err
	}

	w.logEntry().Info("WS соединение установлено.")

	go w.readLoop()

	return nil
}

func (w *PriceFeed) Close() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if conn := w.getConn(); conn != nil {
			_ = conn.Close()
		}
	})
}

// setConn подменяет соединение; старое закрывается, чтобы разбудить
// читателя, застрявший в ReadMessage.
func (w *PriceFeed) setConn(conn *websocket.Conn) {
	w.connMu.Lock()
	old := w.conn
	w.conn = conn
	w.connMu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

func (w *PriceFeed) getConn() *websocket.Conn {
	w.connMu.Lock()
	defer w.connMu.Unlock()
	return w.conn
}

// LastPrice возвращает последнюю цену потока либо false, если данные
// устарели или ещё не приходили.
func (w *PriceFeed) LastPrice() (float64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.lastPrice <= 0 || time.Since(w.updatedAt) > w.staleAfter {
		return 0, false
	}
	return w.lastPrice, true
}

func (w *PriceFeed) subscribe(conn *websocket.Conn) error {
	return conn.WriteJSON(subscribeMessage{
		Op:     "SUBSCRIBE",
		Topic:  "TRADE",
		Symbol: w.symbol,
	})
}

func (w *PriceFeed) readLoop() {
	w.logEntry().Debug("readLoop запущен.")

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}
		conn := w.getConn()
		if conn == nil {
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			w.logEntry().WithError(err).Warn("Ошибка чтения WS.")

			if !w.reconnect() {
				return
			}
			continue
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось разобрать WS сообщение.")
			continue
		}

		switch {
		case msg.Op == "PING":
			_ = conn.WriteJSON(map[string]string{"op": "PONG"})
		case msg.Topic == "TRADE":
			w.handleTrades(msg)
		default:
			continue
		}
	}
}

func (w *PriceFeed) handleTrades(msg message) {
	var trades []tradeEntry
	if err := json.Unmarshal(msg.Data, &trades); err != nil {
		w.logEntry().WithError(err).Warn("Не удалось разобрать сделки из WS.")
		return
	}
	if len(trades) == 0 {
		return
	}
	price := parsePrice(trades[len(trades)-1].Price)
	if price <= 0 {
		return
	}
	w.mu.Lock()
	w.lastPrice = price
	w.updatedAt = time.Now()
	w.mu.Unlock()
}

func (w *PriceFeed) reconnect() bool {
	backoff := w.reconnectMin

	for {
		select {
		case <-w.stopCh:
			return false
		default:
		}

		w.logEntry().Info("Попытка переподключения к WS.")

		time.Sleep(backoff)

		conn, _, err := websocket.DefaultDialer.Dial(w.url, nil)
		if err != nil {
			w.logEntry().WithError(err).Warn("Не удалось переподключиться к WS.")
			backoff = w.nextBackoff(backoff)
			continue
		}

		conn.SetReadLimit(2 << 20)
		w.setConn(conn)

		if err := w.subscribe(conn); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось повторно подписаться на WS.")
			backoff = w.nextBackoff(backoff)
			continue
		}

		w.logEntry().Info("WS переподключён и подписка восстановлена.")
		return true
	}
}

func (w *PriceFeed) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > w.reconnectMax {
		return w.reconnectMax
	}
	return next
}

func (w *PriceFeed) logEntry() *logrus.Entry {
	return w.log.WithComponent("pionex_ws").WithField("symbol", w.symbol)
}

func parsePrice(s string) float64 {
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return price
}
