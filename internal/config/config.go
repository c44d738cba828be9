package config

import (
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings — значение конфигурации целиком. Копируется при чтении, так
// что перечитывание с диска не рвёт работающий цикл на полуслове.
type Settings struct {
	Exchange      ExchangeConfig
	Trading       TradingConfig
	TradingHours  TradingHoursConfig
	Watchdog      WatchdogConfig
	Sessions      SessionsConfig
	Breakout      BreakoutConfig
	AntiFake      AntiFakeConfig
	MTFRSI        MTFRSIConfig
	VolumeFilter  VolumeFilterConfig
	Risk          RiskConfig
	Notifications NotificationsConfig
	Store         StoreConfig
	Metrics       MetricsConfig
	Runtime       RuntimeConfig
}

type ExchangeConfig struct {
	BaseURL string
	WSURL   string
	ApiKey  string
	Secret  string
}

type TradingConfig struct {
	Pair            string
	Strategy        string
	Leverage        int
	MarginType      string
	MaxPositionSize float64
	Interval        string
	BarLimit        int
}

type TradingHoursConfig struct {
	Enabled  bool
	Timezone string
	Start    string
	End      string
}

type WatchdogConfig struct {
	HeartbeatSec    int
	ErrorBackoffSec int
	MonitorDelaySec int
	StopTimeoutSec  int
	RestartDelaySec int
}

type SessionsConfig struct {
	US    USSessionConfig
	Asian AsianSessionConfig
}

type USSessionConfig struct {
	Enabled          bool
	DaylightMonths   []int
	DaylightStart    string
	DaylightEnd      string
	StandardStart    string
	StandardEnd      string
	RangeBoxLookback int
}

type AsianSessionConfig struct {
	Enabled          bool
	Start            string
	End              string
	RangeBoxLookback int
}

type BreakoutConfig struct {
	Enabled             bool
	BufferPercentage    float64
	CooldownMinutes     int
	MaxTradesPerSession int
	ConfirmationCandles int
}

type AntiFakeConfig struct {
	RetestEnabled      bool
	MaxSlippage        float64
	MinDistanceFromBox float64
}

type MTFRSIConfig struct {
	Enabled         bool
	LongShortTF     float64
	LongLongTF      float64
	ShortShortTF    float64
	ShortLongTF     float64
	SecondTimeframe string
}

type VolumeFilterConfig struct {
	Enabled    bool
	Multiplier float64
	EMAPeriod  int
}

type RiskConfig struct {
	StopLossUseBoxOpposite bool
	StopLossPercentage     float64
	TakeProfitPercentage   float64
	TrailingPercentage     float64
	TrailingStepPct        float64
	TrailingDistancePct    float64
}

type NotificationsConfig struct {
	EmailEnabled bool
	EmailAddress string
	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
}

type StoreConfig struct {
	Path string
}

type MetricsConfig struct {
	Enabled bool
	Addr    string
}

type RuntimeConfig struct {
	Log LogConfig
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Config раздаёт секции конфигурации под RWMutex: воркеры читают через
// аксессоры, Reload и SetTradingPair подменяют значение целиком.
type Config struct {
	mu sync.RWMutex
	s  Settings
}

// New оборачивает готовые настройки. Используется в тестах и там, где
// конфигурация не приходит с диска.
func New(s Settings) *Config {
	return &Config{s: s}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	viper.ReadInConfig()

	cfg := &Config{}
	cfg.read()
	return cfg, nil
}

// Reload перечитывает конфигурацию с диска после изменения настроек.
func (c *Config) Reload() error {
	if err := viper.ReadInConfig(); err != nil {
		return err
	}
	c.read()
	return nil
}

// SetTradingPair сохраняет новую торговую пару в конфигурационный файл.
func (c *Config) SetTradingPair(pair string) error {
	c.mu.Lock()
	c.s.Trading.Pair = pair
	c.mu.Unlock()
	viper.Set("trading.pair", pair)
	return viper.WriteConfig()
}

func (c *Config) Pair() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Trading.Pair
}

func (c *Config) Exchange() ExchangeConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Exchange
}

func (c *Config) Trading() TradingConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Trading
}

func (c *Config) TradingHours() TradingHoursConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.TradingHours
}

func (c *Config) Watchdog() WatchdogConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Watchdog
}

func (c *Config) Sessions() SessionsConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Sessions
}

func (c *Config) Breakout() BreakoutConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Breakout
}

func (c *Config) AntiFake() AntiFakeConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.AntiFake
}

func (c *Config) MTFRSI() MTFRSIConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.MTFRSI
}

func (c *Config) VolumeFilter() VolumeFilterConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.VolumeFilter
}

func (c *Config) Risk() RiskConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Risk
}

func (c *Config) Notifications() NotificationsConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Notifications
}

func (c *Config) Store() StoreConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Store
}

func (c *Config) Metrics() MetricsConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Metrics
}

func (c *Config) Runtime() RuntimeConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Runtime
}

func (c *Config) read() {
	s := readSettings()
	c.mu.Lock()
	c.s = s
	c.mu.Unlock()
}

func readSettings() Settings {
	var s Settings

	s.Exchange = ExchangeConfig{
		BaseURL: getDefault("exchange.base_url", "https://api.pionex.com"),
		WSURL:   viper.GetString("exchange.ws_url"),
		ApiKey:  envSub("exchange.api_key"),
		Secret:  envSub("exchange.secret"),
	}

	s.Trading = TradingConfig{
		Pair:            getDefault("trading.pair", "BTCUSDT"),
		Strategy:        getDefault("trading.strategy", "ADVANCED_STRATEGY"),
		Leverage:        getIntDefault("trading.leverage", 10),
		MarginType:      getDefault("trading.margin_type", "ISOLATED"),
		MaxPositionSize: getFloatDefault("trading.max_position_size", 0.1),
		Interval:        getDefault("trading.interval", "1M"),
		BarLimit:        getIntDefault("trading.bar_limit", 100),
	}

	s.TradingHours = TradingHoursConfig{
		Enabled:  viper.GetBool("trading_hours.enabled"),
		Timezone: getDefault("trading_hours.timezone", "UTC"),
		Start:    getDefault("trading_hours.start", "00:00"),
		End:      getDefault("trading_hours.end", "23:59"),
	}

	s.Watchdog = WatchdogConfig{
		HeartbeatSec:    getIntDefault("watchdog.heartbeat_interval", 60),
		ErrorBackoffSec: getIntDefault("watchdog.error_backoff", 30),
		MonitorDelaySec: getIntDefault("watchdog.monitor_delay", 2),
		StopTimeoutSec:  getIntDefault("watchdog.stop_timeout", 5),
		RestartDelaySec: getIntDefault("watchdog.restart_delay", 2),
	}

	s.Sessions = SessionsConfig{
		US: USSessionConfig{
			Enabled:          viper.GetBool("sessions.us_session.enabled"),
			DaylightMonths:   viper.GetIntSlice("sessions.us_session.daylight_saving.months"),
			DaylightStart:    getDefault("sessions.us_session.daylight_saving.start_time", "09:30"),
			DaylightEnd:      getDefault("sessions.us_session.daylight_saving.end_time", "16:00"),
			StandardStart:    getDefault("sessions.us_session.standard_time.start_time", "09:30"),
			StandardEnd:      getDefault("sessions.us_session.standard_time.end_time", "16:00"),
			RangeBoxLookback: getIntDefault("sessions.us_session.range_box_lookback", 90),
		},
		Asian: AsianSessionConfig{
			Enabled:          viper.GetBool("sessions.asian_session.enabled"),
			Start:            getDefault("sessions.asian_session.start_time", "19:30"),
			End:              getDefault("sessions.asian_session.end_time", "01:30"),
			RangeBoxLookback: getIntDefault("sessions.asian_session.range_box_lookback", 90),
		},
	}

	s.Breakout = BreakoutConfig{
		Enabled:             viper.GetBool("breakout.enabled"),
		BufferPercentage:    getFloatDefault("breakout.buffer_percentage", 0.05),
		CooldownMinutes:     getIntDefault("breakout.cooldown_minutes", 30),
		MaxTradesPerSession: getIntDefault("breakout.max_trades_per_session", 1),
		ConfirmationCandles: getIntDefault("breakout.confirmation_candles", 1),
	}

	s.AntiFake = AntiFakeConfig{
		RetestEnabled:      viper.GetBool("anti_fake.retest_enabled"),
		MaxSlippage:        getFloatDefault("anti_fake.max_slippage", 0.05),
		MinDistanceFromBox: getFloatDefault("anti_fake.min_distance_from_box", 0.02),
	}

	s.MTFRSI = MTFRSIConfig{
		Enabled:         viper.GetBool("mtf_rsi.enabled"),
		LongShortTF:     getFloatDefault("mtf_rsi.thresholds.long_conditions.short_tf", 30),
		LongLongTF:      getFloatDefault("mtf_rsi.thresholds.long_conditions.long_tf", 50),
		ShortShortTF:    getFloatDefault("mtf_rsi.thresholds.short_conditions.short_tf", 70),
		ShortLongTF:     getFloatDefault("mtf_rsi.thresholds.short_conditions.long_tf", 50),
		SecondTimeframe: getDefault("mtf_rsi.second_timeframe", "1H"),
	}

	s.VolumeFilter = VolumeFilterConfig{
		Enabled:    viper.GetBool("volume_filter.enabled"),
		Multiplier: getFloatDefault("volume_filter.multiplier", 1.5),
		EMAPeriod:  getIntDefault("volume_filter.ema_period", 20),
	}

	s.Risk = RiskConfig{
		StopLossUseBoxOpposite: getBoolDefault("risk_management.stop_loss.use_box_opposite", true),
		StopLossPercentage:     getFloatDefault("risk_management.stop_loss.percentage", 1.5),
		TakeProfitPercentage:   getFloatDefault("risk_management.take_profit.percentage", 2.5),
		TrailingPercentage:     getFloatDefault("risk_management.trailing_stop.percentage", 1.0),
		TrailingStepPct:        getFloatDefault("risk_management.trailing_stop.step_percentage", 0.3),
		TrailingDistancePct:    getFloatDefault("risk_management.trailing_stop.distance_percentage", 0.8),
	}

	s.Notifications = NotificationsConfig{
		EmailEnabled: viper.GetBool("notifications.email"),
		EmailAddress: viper.GetString("notifications.email_address"),
		SMTPHost:     viper.GetString("notifications.smtp_host"),
		SMTPPort:     getIntDefault("notifications.smtp_port", 587),
		SMTPFrom:     getDefault("notifications.smtp_from", "trading-bot@example.com"),
	}

	s.Store = StoreConfig{
		Path: getDefault("store.path", "data/state.json"),
	}

	s.Metrics = MetricsConfig{
		Enabled: viper.GetBool("metrics.enabled"),
		Addr:    getDefault("metrics.addr", ":9105"),
	}

	s.Runtime = RuntimeConfig{
		Log: LogConfig{
			Level:      getDefault("runtime.log.level", "info"),
			Format:     getDefault("runtime.log.format", "text"),
			File:       viper.GetString("runtime.log.file"),
			MaxSize:    getIntDefault("runtime.log.max_size", 50),
			MaxBackups: getIntDefault("runtime.log.max_backups", 3),
			MaxAge:     getIntDefault("runtime.log.max_age", 14),
			Compress:   viper.GetBool("runtime.log.compress"),
		},
	}

	return s
}

func getDefault(key, def string) string {
	if val := viper.GetString(key); val != "" {
		return val
	}
	return def
}

func getIntDefault(key string, def int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return def
}

func getFloatDefault(key string, def float64) float64 {
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	return def
}

func getBoolDefault(key string, def bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return def
}

func envSub(key string) string {
	val := viper.GetString(key)
	if val == "" {
		return ""
	}

	re := regexp.MustCompile(`\$\{(\w+)\}`)
	return re.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
