package notify

import (
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/logger"
)

// Notifier доставляет уведомления пользователю. Ошибки доставки
// логируются на стороне реализации и никогда не всплывают в ядро.
type Notifier interface {
	Notify(title, message string)
}

type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(title, message string) {
	n.log.WithComponent("notify").WithFields(map[string]interface{}{
		"title": title,
	}).Info(message)
}

// Multi рассылает уведомление во все каналы.
type Multi struct {
	notifiers []Notifier
}

func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) Notify(title, message string) {
	for _, n := range m.notifiers {
		n.Notify(title, message)
	}
}
