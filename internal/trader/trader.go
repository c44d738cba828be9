package trader

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/breakout"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/config"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/exchange"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/logger"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/metrics"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/notify"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/store"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/strategy"
	"github.com/sirupsen/logrus"
)

// SignalProvider выдаёт торговое предложение по стратегии и балансу.
type SignalProvider interface {
	Evaluate(ctx context.Context, kind strategy.Kind, symbol string, balance float64) (models.Signal, error)
}

// PriceSource — быстрый источник последней цены (WS-поток). Второе
// значение false, когда данные устарели и нужен запрос к REST.
type PriceSource interface {
	LastPrice() (float64, bool)
}

type Status struct {
	IsRunning          bool       `json:"is_running"`
	Enabled            bool       `json:"auto_trading_enabled"`
	CurrentPair        string     `json:"current_pair"`
	RestartCount       int        `json:"restart_count"`
	LastRestart        *time.Time `json:"last_restart,omitempty"`
	TradingHoursActive bool       `json:"trading_hours_active"`
	UserID             int64      `json:"user_id"`
}

// Trader — автономный торговый цикл одной пары. Все публичные операции
// синхронизированы: running=true всегда означает ровно одного живого
// воркера.
type Trader struct {
	userID   int64
	cfg      *config.Config
	gw       exchange.Gateway
	provider SignalProvider
	breakout *breakout.Engine
	store    *store.Store
	notifier notify.Notifier
	feed     PriceSource
	log      *logger.Logger

	mu           sync.Mutex
	enabled      bool
	running      bool
	pair         string
	restartCount int
	lastRestart  time.Time
	cancel       context.CancelFunc
	done         chan struct{}
}

type Deps struct {
	Config   *config.Config
	Gateway  exchange.Gateway
	Provider SignalProvider
	Breakout *breakout.Engine
	Store    *store.Store
	Notifier notify.Notifier
	Feed     PriceSource
	Log      *logger.Logger
}

func New(userID int64, deps Deps) *Trader {
	return &Trader{
		userID:   userID,
		cfg:      deps.Config,
		gw:       deps.Gateway,
		provider: deps.Provider,
		breakout: deps.Breakout,
		store:    deps.Store,
		notifier: deps.Notifier,
		feed:     deps.Feed,
		log:      deps.Log,
		pair:     deps.Config.Pair(),
	}
}

func (t *Trader) logEntry() *logrus.Entry {
	return t.log.WithComponent("trader").WithField("user_id", t.userID).WithField("symbol", t.Pair())
}

func (t *Trader) Pair() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pair
}

func (t *Trader) IsEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *Trader) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Enable включает автоторговлю: сохраняет флаг, уведомляет и запускает
// воркер, если тот ещё не работает. Повторный вызов не плодит воркеров.
func (t *Trader) Enable() {
	t.mu.Lock()
	t.enabled = true
	t.mu.Unlock()

	if err := t.store.UpdateUserSettings(t.userID, func(s *store.UserSettings) {
		s.AutoTrading = true
	}); err != nil {
		t.logEntry().WithError(err).Error("Не удалось сохранить настройки пользователя.")
	}

	t.logEntry().Info("Автоторговля включена.")
	t.notifier.Notify("🤖 Автоторговля включена", fmt.Sprintf("Автоторговля включена для %s", t.Pair()))

	t.Start()
}

// Disable выключает автоторговлю и останавливает воркер, ожидая его
// завершения не дольше таймаута. Невозможность дождаться — ошибка в
// журнале, а не падение процесса.
func (t *Trader) Disable() {
	t.mu.Lock()
	t.enabled = false
	t.mu.Unlock()

	if err := t.store.UpdateUserSettings(t.userID, func(s *store.UserSettings) {
		s.AutoTrading = false
	}); err != nil {
		t.logEntry().WithError(err).Error("Не удалось сохранить настройки пользователя.")
	}

	t.logEntry().Info("Автоторговля выключена.")
	t.notifier.Notify("❌ Автоторговля выключена", fmt.Sprintf("Автоторговля выключена для %s", t.Pair()))

	t.Stop()
}

// Start запускает воркер цикла. Повторный запуск — предупреждение.
func (t *Trader) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		t.logEntry().Warn("Автоторговля уже запущена.")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	t.running = true
	done := t.done
	t.mu.Unlock()

	metrics.Running.WithLabelValues(t.userLabel()).Set(1)
	go t.runLoop(ctx, done)
	t.logEntry().Info("Автоторговля запущена.")
}

// Stop сигналит отмену и ждёт воркера не дольше настроенного таймаута.
func (t *Trader) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		t.logEntry().Warn("Автоторговля не запущена.")
		return
	}
	cancel := t.cancel
	done := t.done
	t.mu.Unlock()

	cancel()

	timeout := time.Duration(t.cfg.Watchdog().StopTimeoutSec) * time.Second
	select {
	case <-done:
		t.logEntry().Info("Автоторговля остановлена.")
	case <-time.After(timeout):
		t.logEntry().Error("Воркер не завершился за отведённое время.")
	}
}

// Restart перезапускает воркер после короткой паузы. Счётчик рестартов
// растёт в любом случае; воркер стартует только при включённой торговле.
func (t *Trader) Restart() {
	t.mu.Lock()
	t.restartCount++
	t.lastRestart = time.Now()
	running := t.running
	t.mu.Unlock()

	metrics.Restarts.Inc()
	t.logEntry().Info("Перезапуск автоторговли...")

	if running {
		t.Stop()
	}

	time.Sleep(time.Duration(t.cfg.Watchdog().RestartDelaySec) * time.Second)

	if t.IsEnabled() {
		t.Start()
		t.logEntry().Info("Автоторговля перезапущена.")
		t.notifier.Notify("🔄 Автоторговля перезапущена", fmt.Sprintf("Автоторговля перезапущена для %s", t.Pair()))
	} else {
		t.logEntry().Info("Перезапуск пропущен: автоторговля выключена.")
	}
}

// SetTradingPair меняет активный символ и сохраняет конфигурацию. Ошибка
// записи на диск не прерывает работу.
func (t *Trader) SetTradingPair(pair string) {
	t.mu.Lock()
	oldPair := t.pair
	t.pair = normalizePair(pair)
	newPair := t.pair
	t.mu.Unlock()

	if err := t.cfg.SetTradingPair(newPair); err != nil {
		t.logEntry().WithError(err).Error("Не удалось сохранить торговую пару в конфигурации.")
	} else if err := t.cfg.Reload(); err != nil {
		t.logEntry().WithError(err).Error("Не удалось перечитать конфигурацию.")
	}

	if err := t.store.UpdateUserSettings(t.userID, func(s *store.UserSettings) {
		s.TradingPair = newPair
	}); err != nil {
		t.logEntry().WithError(err).Error("Не удалось сохранить настройки пользователя.")
	}

	t.logEntry().WithFields(map[string]interface{}{
		"old": oldPair,
		"new": newPair,
	}).Info("Торговая пара изменена.")
	if oldPair != newPair {
		t.notifier.Notify("🔄 Торговая пара изменена", fmt.Sprintf("Торговая пара изменена на %s", newPair))
	}
}

func (t *Trader) Status() Status {
	t.mu.Lock()
	status := Status{
		IsRunning:    t.running,
		Enabled:      t.enabled,
		CurrentPair:  t.pair,
		RestartCount: t.restartCount,
		UserID:       t.userID,
	}
	if !t.lastRestart.IsZero() {
		last := t.lastRestart
		status.LastRestart = &last
	}
	t.mu.Unlock()

	status.TradingHoursActive = t.tradingHoursActive(time.Now())
	return status
}

func (t *Trader) userLabel() string {
	return strconv.FormatInt(t.userID, 10)
}

func normalizePair(pair string) string {
	out := make([]rune, 0, len(pair))
	for _, r := range pair {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
