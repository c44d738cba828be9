package strategy

import (
	"context"
	"fmt"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/config"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/exchange"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/logger"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
)

// Kind — закрытое перечисление стратегий. Диспетчеризация идёт по таблице
// evaluators, а не по произвольным строкам; неизвестный вид отклоняется.
type Kind string

const (
	KindRSI          Kind = "RSI_STRATEGY"
	KindRSIMultiTF   Kind = "RSI_MULTI_TF"
	KindVolumeFilter Kind = "VOLUME_FILTER"
	KindAdvanced     Kind = "ADVANCED_STRATEGY"
	KindGrid         Kind = "GRID_TRADING"
	KindDCA          Kind = "DCA"
	KindBreakout     Kind = "BOT_2025"
)

// ErrUnknownKind возвращается для стратегии вне перечисления.
var ErrUnknownKind = fmt.Errorf("Неизвестный вид стратегии")

type evaluator func(p *Provider, ctx context.Context, symbol string, balance float64) (models.Signal, error)

var evaluators = map[Kind]evaluator{
	KindRSI:          (*Provider).evalRSI,
	KindRSIMultiTF:   (*Provider).evalRSIMultiTF,
	KindVolumeFilter: (*Provider).evalVolumeFilter,
	KindAdvanced:     (*Provider).evalAdvanced,
	KindGrid:         (*Provider).evalGrid,
	KindDCA:          (*Provider).evalDCA,
	KindBreakout:     (*Provider).evalBreakout,
}

// ParseKind проверяет строку из настроек пользователя.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	_, ok := evaluators[k]
	return k, ok
}

// BreakoutEvaluator подключает сессионно-пробойный движок как стратегию.
type BreakoutEvaluator interface {
	Evaluate(symbol string, price float64, bars []models.Bar) (models.Signal, bool)
}

type Provider struct {
	gw       exchange.Gateway
	cfg      *config.Config
	log      *logger.Logger
	breakout BreakoutEvaluator
}

func NewProvider(gw exchange.Gateway, cfg *config.Config, log *logger.Logger) *Provider {
	return &Provider{gw: gw, cfg: cfg, log: log}
}

// AttachBreakout включает пробойную стратегию (опциональная зависимость).
func (p *Provider) AttachBreakout(b BreakoutEvaluator) {
	p.breakout = b
}

// Evaluate запускает стратегию и возвращает торговый сигнал либо пустой
// сигнал, если условий для входа нет.
func (p *Provider) Evaluate(ctx context.Context, kind Kind, symbol string, balance float64) (models.Signal, error) {
	eval, ok := evaluators[kind]
	if !ok {
		return models.Signal{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return eval(p, ctx, symbol, balance)
}

func (p *Provider) bars(ctx context.Context, symbol string) ([]models.Bar, error) {
	return p.gw.GetMarketData(ctx, symbol, p.cfg.Trading().Interval, p.cfg.Trading().BarLimit)
}

// positionSize — объём позиции от доли баланса по текущей цене.
func (p *Provider) positionSize(balance, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return balance * p.cfg.Trading().MaxPositionSize / price
}
