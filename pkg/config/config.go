package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// CostBasisPolicy governs what happens when a sale is recorded while the
// running WAC is still zero (no prior purchase).
type CostBasisPolicy string

const (
	// PolicyBlockSale refuses the sale outright.
	PolicyBlockSale CostBasisPolicy = "block_sale"
	// PolicyBlockCOGS records the sale but refuses the automatic COGS posting
	// until a purchase backfills the cost basis.
	PolicyBlockCOGS CostBasisPolicy = "block_cogs"
	// PolicyReportOnly records the sale and posts nothing for COGS, only
	// surfacing an integrity warning.
	PolicyReportOnly CostBasisPolicy = "report_only"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	RedisAddr     string
	RedisPassword string

	// CostBasisPolicy is the zero-WAC sale policy (see type docs).
	CostBasisPolicy CostBasisPolicy

	// ReservationTTL is the default lifetime of a checkout hold.
	ReservationTTL time.Duration

	// ReservationSweepLimit bounds one expiry sweep pass.
	ReservationSweepLimit int

	// EntryNumberMaxRetries bounds retries on entry-number collisions.
	EntryNumberMaxRetries int

	// CurrentAssetCodeMax is the highest account code still considered a
	// current asset on the balance sheet (codes above it, up to 1999, are
	// non-current).
	CurrentAssetCodeMax int

	// StatementCacheTTL is how long statement responses stay cached.
	StatementCacheTTL time.Duration

	// Cash and default posting accounts for the automatic posting rules.
	ProcessorCashAccount string
	RevenueAccount       string
	FeeExpenseAccount    string
	COGSAccount          string
	InventoryAccount     string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("COST_BASIS_POLICY", string(PolicyBlockCOGS))
	viper.SetDefault("RESERVATION_TTL", "30m")
	viper.SetDefault("RESERVATION_SWEEP_LIMIT", 500)
	viper.SetDefault("ENTRY_NUMBER_MAX_RETRIES", 3)
	viper.SetDefault("CURRENT_ASSET_CODE_MAX", 1499)
	viper.SetDefault("STATEMENT_CACHE_TTL", "5m")
	viper.SetDefault("PROCESSOR_CASH_ACCOUNT", "1000")
	viper.SetDefault("REVENUE_ACCOUNT", "4000")
	viper.SetDefault("FEE_EXPENSE_ACCOUNT", "6100")
	viper.SetDefault("COGS_ACCOUNT", "5000")
	viper.SetDefault("INVENTORY_ACCOUNT", "1200")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")

	policy := CostBasisPolicy(viper.GetString("COST_BASIS_POLICY"))
	switch policy {
	case PolicyBlockSale, PolicyBlockCOGS, PolicyReportOnly:
		cfg.CostBasisPolicy = policy
	default:
		return nil, fmt.Errorf("invalid COST_BASIS_POLICY %q", policy)
	}

	ttl, err := time.ParseDuration(viper.GetString("RESERVATION_TTL"))
	if err != nil {
		ttl = 30 * time.Minute
		log.Printf("Warning: Invalid RESERVATION_TTL. Defaulting to %s.\n", ttl)
	}
	cfg.ReservationTTL = ttl

	cacheTTL, err := time.ParseDuration(viper.GetString("STATEMENT_CACHE_TTL"))
	if err != nil {
		cacheTTL = 5 * time.Minute
		log.Printf("Warning: Invalid STATEMENT_CACHE_TTL. Defaulting to %s.\n", cacheTTL)
	}
	cfg.StatementCacheTTL = cacheTTL

	cfg.ReservationSweepLimit = viper.GetInt("RESERVATION_SWEEP_LIMIT")
	cfg.EntryNumberMaxRetries = viper.GetInt("ENTRY_NUMBER_MAX_RETRIES")
	cfg.CurrentAssetCodeMax = viper.GetInt("CURRENT_ASSET_CODE_MAX")

	cfg.ProcessorCashAccount = viper.GetString("PROCESSOR_CASH_ACCOUNT")
	cfg.RevenueAccount = viper.GetString("REVENUE_ACCOUNT")
	cfg.FeeExpenseAccount = viper.GetString("FEE_EXPENSE_ACCOUNT")
	cfg.COGSAccount = viper.GetString("COGS_ACCOUNT")
	cfg.InventoryAccount = viper.GetString("INVENTORY_ACCOUNT")

	return cfg, nil
}
