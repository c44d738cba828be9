package notify

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/config"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/logger"
)

type EmailNotifier struct {
	cfg config.NotificationsConfig
	log *logger.Logger

	send func(addr string, from string, to []string, msg []byte) error
}

func NewEmailNotifier(cfg config.NotificationsConfig, log *logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg: cfg,
		log: log,
		send: func(addr string, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

func (n *EmailNotifier) Notify(title, message string) {
	if !n.cfg.EmailEnabled || n.cfg.EmailAddress == "" {
		return
	}

	body := fmt.Sprintf("Subject: Trading Bot - %s\r\nFrom: %s\r\nTo: %s\r\n\r\n%s\r\n\r\nTime: %s\r\n",
		title, n.cfg.SMTPFrom, n.cfg.EmailAddress, message,
		time.Now().Format("2006-01-02 15:04:05"))

	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)
	if err := n.send(addr, n.cfg.SMTPFrom, []string{n.cfg.EmailAddress}, []byte(body)); err != nil {
		n.log.WithComponent("notify").WithError(err).Error("Не удалось отправить email-уведомление.")
	}
}
