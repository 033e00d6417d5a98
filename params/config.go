package params

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Backtest struct {
	// SettlementTime is the daily settlement instant as wall-clock time
	// of day ("17:00:00"), interpreted in the input series' timezone.
	SettlementTime string
	// TradeCost is the transaction charge per unit lot.
	TradeCost float64
	// Slippage is the slippage charge per unit lot.
	Slippage float64
	// ExecMode selects limit order fill pricing:
	// "worst_case" (default) or "given_price".
	ExecMode string
}

type Server struct {
	Addr           string
	AllowedOrigins []string
}

type Store struct {
	Path string
}

type Config struct {
	Backtest Backtest
	Server   Server
	Store    Store
}

func Default() Config {
	return Config{
		Backtest: Backtest{
			SettlementTime: "17:00:00",
			TradeCost:      0,
			Slippage:       0,
			ExecMode:       "worst_case",
		},
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Store: Store{
			Path: "data/runs.db",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("SETTLEMENT_TIME"); v != "" {
		cfg.Backtest.SettlementTime = v
	}
	if v := os.Getenv("TRADE_COST"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backtest.TradeCost = f
		}
	}
	if v := os.Getenv("SLIPPAGE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backtest.Slippage = f
		}
	}
	if v := os.Getenv("LIMIT_EXEC_MODE"); v != "" {
		cfg.Backtest.ExecMode = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}

	return cfg
}
