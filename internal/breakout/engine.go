package breakout

import (
	"sync"
	"time"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/config"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/logger"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
)

const (
	SessionUS    = "us_session"
	SessionAsian = "asian_session"
)

// RangeBox — ценовой диапазон открытия сессии. Считается один раз на
// вхождение сессии и перезаписывается на следующем вхождении, не мутирует.
type RangeBox struct {
	Symbol       string    `json:"symbol"`
	Session      string    `json:"session"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Range        float64   `json:"range"`
	SessionStart time.Time `json:"session_start"`
	Lookback     int       `json:"lookback"`
	ComputedAt   time.Time `json:"computed_at"`
}

// Check — результат цепочки допуска. Отказ — это не ошибка, а штатный
// отрицательный исход с кодом причины.
type Check struct {
	Valid    bool
	Reason   string
	Signal   models.BreakoutSide
	RangeBox *RangeBox
	Filters  FilterResult
	Price    float64
}

type FilterResult struct {
	Passed      []string
	VolumeRatio float64
}

type RiskParams struct {
	StopLoss         float64 `json:"stop_loss"`
	TakeProfit       float64 `json:"take_profit"`
	TrailingStep     float64 `json:"trailing_step"`
	TrailingDistance float64 `json:"trailing_distance"`
	RiskReward       float64 `json:"risk_reward_ratio"`
}

type ActiveTrade struct {
	ID         string              `json:"id"`
	Symbol     string              `json:"symbol"`
	Session    string              `json:"session"`
	Signal     models.BreakoutSide `json:"signal"`
	EntryPrice float64             `json:"entry_price"`
	Size       float64             `json:"size"`
	Risk       RiskParams          `json:"risk"`
	EntryTime  time.Time           `json:"entry_time"`
	Status     models.TradeStatus  `json:"status"`
}

type SessionStatus struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Active  bool   `json:"active"`
}

// Engine — сессионно-пробойный движок. Зависит только от времени и свечей,
// без I/O. Карты защищены мьютексом: несколько воркеров могут одновременно
// оценивать условия по разным символам.
type Engine struct {
	cfg *config.Config
	log *logger.Logger
	loc *time.Location
	now func() time.Time

	mu            sync.RWMutex
	rangeBoxes    map[string]*RangeBox
	sessionTrades map[string][]string
	lastTradeTime map[string]time.Time
	activeTrades  map[string]*ActiveTrade
}

func New(cfg *config.Config, log *logger.Logger) *Engine {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		log.WithComponent("breakout").WithError(err).Warn("Не удалось загрузить таймзону сессий, используем UTC.")
		loc = time.UTC
	}
	return &Engine{
		cfg:           cfg,
		log:           log,
		loc:           loc,
		now:           time.Now,
		rangeBoxes:    map[string]*RangeBox{},
		sessionTrades: map[string][]string{},
		lastTradeTime: map[string]time.Time{},
		activeTrades:  map[string]*ActiveTrade{},
	}
}

func key(symbol, session string) string {
	return symbol + "_" + session
}

// GetRangeBoxes возвращает копию рассчитанных диапазонов.
func (e *Engine) GetRangeBoxes() map[string]RangeBox {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]RangeBox, len(e.rangeBoxes))
	for k, box := range e.rangeBoxes {
		out[k] = *box
	}
	return out
}

// GetActiveTrades возвращает копию открытых сделок.
func (e *Engine) GetActiveTrades() map[string]ActiveTrade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]ActiveTrade, len(e.activeTrades))
	for k, trade := range e.activeTrades {
		out[k] = *trade
	}
	return out
}

// GetSessionStatus возвращает состояние всех сессий.
func (e *Engine) GetSessionStatus() []SessionStatus {
	return []SessionStatus{
		{Name: SessionUS, Enabled: e.cfg.Sessions().US.Enabled, Active: e.IsSessionActive(SessionUS)},
		{Name: SessionAsian, Enabled: e.cfg.Sessions().Asian.Enabled, Active: e.IsSessionActive(SessionAsian)},
	}
}

// ResetSessionTrades очищает счётчики сделок: по конкретному ключу либо
// целиком (суточный сброс или ручное вмешательство).
func (e *Engine) ResetSessionTrades(symbol, session string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if symbol != "" && session != "" {
		k := key(symbol, session)
		delete(e.sessionTrades, k)
		delete(e.lastTradeTime, k)
	} else {
		e.sessionTrades = map[string][]string{}
		e.lastTradeTime = map[string]time.Time{}
	}
	e.log.WithComponent("breakout").Info("Счётчики сделок по сессиям сброшены.")
}
