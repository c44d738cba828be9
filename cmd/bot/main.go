package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/breakout"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/config"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/exchange/pionex"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/exchange/pionex/ws"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/logger"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/notify"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/store"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/strategy"
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/trader"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultUserID = 1

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logCfg := cfg.Runtime().Log
	log := logger.New(logger.Config{
		Level:      logCfg.Level,
		Format:     logCfg.Format,
		Output:     logCfg.File,
		MaxSize:    logCfg.MaxSize,
		MaxBackups: logCfg.MaxBackups,
		MaxAge:     logCfg.MaxAge,
		Compress:   logCfg.Compress,
	})

	log.Info("Бот запущен.")

	ex := cfg.Exchange()
	gw := pionex.New(ex.BaseURL, ex.ApiKey, ex.Secret, log)

	feed := ws.NewPriceFeed(ex.WSURL, cfg.Pair(), log)
	if err := feed.Connect(context.Background()); err != nil {
		log.WithError(err).Warn("Не удалось подключить поток цен, используем только REST.")
	}
	defer feed.Close()

	st, err := store.New(cfg.Store().Path)
	if err != nil {
		log.WithError(err).Fatal("Не удалось открыть хранилище.")
	}

	notifier := notify.NewMulti(
		notify.NewLogNotifier(log),
		notify.NewEmailNotifier(cfg.Notifications(), log),
	)

	engine := breakout.New(cfg, log)
	provider := strategy.NewProvider(gw, cfg, log)
	provider.AttachBreakout(engine)

	registry := trader.NewRegistry(func(userID int64) *trader.Trader {
		return trader.New(userID, trader.Deps{
			Config:   cfg,
			Gateway:  gw,
			Provider: provider,
			Breakout: engine,
			Store:    st,
			Notifier: notifier,
			Feed:     feed,
			Log:      log,
		})
	})

	if cfg.Metrics().Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics().Addr, mux); err != nil {
				log.WithError(err).Error("Сервер метрик завершился с ошибкой.")
			}
		}()
	}

	bot := registry.Get(defaultUserID)
	if st.GetUserSettings(defaultUserID).AutoTrading {
		bot.Enable()
	} else {
		log.Info("Автоторговля выключена, ожидаем команды.")
	}

	<-sigCh

	registry.StopAll()
	log.Info("Бот остановлен.")
}
