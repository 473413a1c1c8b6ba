package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// Config es la configuración completa del runtime.
type Config struct {
	Strategy       StrategyConfig              `yaml:"strategy"`
	Risk           domain.RiskThresholds       `yaml:"risk"`
	OrderExecution domain.OrderExecutionConfig `yaml:"order_execution"`
	Hedging        domain.HedgingConfig        `yaml:"hedging"`
	GammaScalp     domain.GammaScalpConfig     `yaml:"gamma_scalp"`
	Storage        StorageConfig               `yaml:"storage"`
	Notify         NotifyConfig                `yaml:"notify"`
	Log            LogConfig                   `yaml:"log"`
}

// StrategyConfig controla la estrategia y su universo de contratos.
type StrategyConfig struct {
	Name        string   `yaml:"name"`
	Products    []string `yaml:"products"`
	BarInterval string   `yaml:"bar_interval"` // minute | hour | daily
	BarWindow   int      `yaml:"bar_window"`

	EMAFast int `yaml:"ema_fast"`
	EMASlow int `yaml:"ema_slow"`

	// StrikeLevel es un índice 0-based sobre las OTM ordenadas; nil
	// en el YAML significa el default 3.
	StrikeLevel    *int    `yaml:"strike_level"`
	MinBidPrice    float64 `yaml:"min_bid_price"`
	MinBidVolume   float64 `yaml:"min_bid_volume"`
	MinTradingDays int     `yaml:"min_trading_days"`
	MaxTradingDays int     `yaml:"max_trading_days"`

	// GreeksPreflight activa el chequeo de griegas previo a la apertura.
	GreeksPreflight bool `yaml:"greeks_preflight"`

	MaxPositions     int     `yaml:"max_positions"`
	GlobalDailyLimit float64 `yaml:"global_daily_limit"`
	PerContractLimit float64 `yaml:"per_contract_limit"`

	RolloverDays       int `yaml:"rollover_days"`
	WarmupDaysLive     int `yaml:"warmup_days_live"`
	WarmupDaysBacktest int `yaml:"warmup_days_backtest"`
	AutoSaveSeconds    int `yaml:"autosave_seconds"`

	// Festivos "YYYY-MM-DD" para el calendario de vencimientos.
	Holidays []string `yaml:"holidays"`
	// Vencimientos manuales "productYYMM" -> "YYYY-MM-DD".
	ExpiryOverrides map[string]string `yaml:"expiry_overrides"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	StatePath  string `yaml:"state_path"`  // snapshot JSON del runtime
	HistoryDSN string `yaml:"history_dsn"` // SQLite de barras, o ":memory:"
	MonitorDSN string `yaml:"monitor_dsn"` // SQLite de monitorización
}

// NotifyConfig controla los canales de notificación.
type NotifyConfig struct {
	WebhookURL     string `yaml:"webhook_url"`
	WebhookEnabled bool   `yaml:"webhook_enabled"`
	Console        bool   `yaml:"console"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AutoSaveInterval devuelve el intervalo de autoguardado como Duration.
func (c *Config) AutoSaveInterval() time.Duration {
	return time.Duration(c.Strategy.AutoSaveSeconds) * time.Second
}

// ParsedExpiryOverrides convierte los overrides manuales a time.Time.
func (c *Config) ParsedExpiryOverrides() (map[string]time.Time, error) {
	if len(c.Strategy.ExpiryOverrides) == 0 {
		return nil, nil
	}
	out := make(map[string]time.Time, len(c.Strategy.ExpiryOverrides))
	for key, raw := range c.Strategy.ExpiryOverrides {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("config: expiry override %q: %w", key, err)
		}
		out[key] = t
	}
	return out, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		cfg.Notify.WebhookURL = v
		cfg.Notify.WebhookEnabled = true
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	s := &cfg.Strategy
	if s.Name == "" {
		s.Name = "voltrader"
	}
	if s.BarInterval == "" {
		s.BarInterval = "minute"
	}
	if s.BarWindow <= 0 {
		s.BarWindow = 1
	}
	if s.EMAFast <= 0 {
		s.EMAFast = 12
	}
	if s.EMASlow <= 0 {
		s.EMASlow = 26
	}
	if s.StrikeLevel == nil || *s.StrikeLevel < 0 {
		level := 3
		s.StrikeLevel = &level
	}
	if s.MinBidPrice <= 0 {
		s.MinBidPrice = 10.0
	}
	if s.MinBidVolume <= 0 {
		s.MinBidVolume = 10
	}
	if s.MinTradingDays <= 0 {
		s.MinTradingDays = 1
	}
	if s.MaxTradingDays <= 0 {
		s.MaxTradingDays = 50
	}
	if s.MaxPositions <= 0 {
		s.MaxPositions = 5
	}
	if s.GlobalDailyLimit <= 0 {
		s.GlobalDailyLimit = 50
	}
	if s.PerContractLimit <= 0 {
		s.PerContractLimit = 2
	}
	if s.RolloverDays <= 0 {
		s.RolloverDays = 7
	}
	if s.WarmupDaysLive <= 0 {
		s.WarmupDaysLive = 30
	}
	if s.WarmupDaysBacktest <= 0 {
		s.WarmupDaysBacktest = 5
	}
	if s.AutoSaveSeconds <= 0 {
		s.AutoSaveSeconds = 60
	}

	if cfg.Risk.Position.Delta <= 0 {
		cfg.Risk.Position.Delta = 0.8
	}
	if cfg.Risk.Position.Gamma <= 0 {
		cfg.Risk.Position.Gamma = 0.1
	}
	if cfg.Risk.Position.Vega <= 0 {
		cfg.Risk.Position.Vega = 50
	}
	if cfg.Risk.Portfolio.Delta <= 0 {
		cfg.Risk.Portfolio.Delta = 5.0
	}
	if cfg.Risk.Portfolio.Gamma <= 0 {
		cfg.Risk.Portfolio.Gamma = 1.0
	}
	if cfg.Risk.Portfolio.Vega <= 0 {
		cfg.Risk.Portfolio.Vega = 500
	}

	if cfg.OrderExecution.TimeoutSeconds <= 0 {
		cfg.OrderExecution.TimeoutSeconds = 30
	}
	if cfg.OrderExecution.MaxRetries <= 0 {
		cfg.OrderExecution.MaxRetries = 3
	}
	if cfg.OrderExecution.SlippageTicks <= 0 {
		cfg.OrderExecution.SlippageTicks = 2
	}

	if cfg.Storage.StatePath == "" {
		cfg.Storage.StatePath = fmt.Sprintf("data/state/%s.state.json", s.Name)
	}
	if cfg.Storage.HistoryDSN == "" {
		cfg.Storage.HistoryDSN = "data/history.db"
	}
	if cfg.Storage.MonitorDSN == "" {
		cfg.Storage.MonitorDSN = "data/monitor.db"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// validate rechaza combinaciones sin sentido que los defaults no arreglan.
func validate(cfg *Config) error {
	s := cfg.Strategy
	if len(s.Products) == 0 {
		return fmt.Errorf("config: strategy.products is empty")
	}
	switch s.BarInterval {
	case "minute", "hour", "daily":
	default:
		return fmt.Errorf("config: invalid bar_interval %q", s.BarInterval)
	}
	if s.EMAFast >= s.EMASlow {
		return fmt.Errorf("config: ema_fast %d must be < ema_slow %d", s.EMAFast, s.EMASlow)
	}
	if _, err := cfg.ParsedExpiryOverrides(); err != nil {
		return err
	}
	return nil
}
