package config

import (
	"time"

	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// DatabaseFile is the SQLite database holding the scanned-book catalog
	DatabaseFile string
	// LedgerFile is the SQLite database holding the series ledger
	LedgerFile string
	// SeriesCatalogFile is an optional YAML file extending the builtin series seeds
	SeriesCatalogFile string
	// CacheFile is the SQLite database backing the market snapshot cache
	CacheFile string
	// CacheTTL controls how long market snapshots stay fresh
	CacheTTL time.Duration
	// MinLotValue is the minimum summed estimated value a lot candidate needs to be emitted
	MinLotValue float64
	// EbayAppID is the application id for the eBay Finding API (sold comps)
	EbayAppID string
	// EbayBearerToken is the OAuth token for the eBay Browse API (active listings)
	EbayBearerToken string
	// EbayMarketplace selects the eBay marketplace for active-listing queries
	EbayMarketplace string
)

// InitConfig initializes the global configuration from viper
func InitConfig() {
	DatabaseFile = viper.GetString("database.dbfile")
	LedgerFile = viper.GetString("ledger.dbfile")
	SeriesCatalogFile = viper.GetString("ledger.catalogfile")
	CacheFile = viper.GetString("cache.dbfile")
	CacheTTL = viper.GetDuration("cache.ttl")
	MinLotValue = viper.GetFloat64("lots.minvalue")
	EbayAppID = viper.GetString("ebay.appid")
	EbayBearerToken = viper.GetString("ebay.bearertoken")
	EbayMarketplace = viper.GetString("ebay.marketplace")
}
