package cmd

import (
	"os"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lothelper/internal/config"
)

func resetCmdState(t *testing.T) {
	t.Cleanup(func() {
		viper.Reset()
	})
	viper.Reset()
}

func parseCLI(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()

	originalArgs := os.Args
	os.Args = append([]string{"lothelper"}, args...)
	t.Cleanup(func() { os.Args = originalArgs })

	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("lothelper"),
		kong.Description("Groups a scanned-book catalog into sellable multi-book lots."),
		kong.UsageOnError(),
		kong.Exit(func(code int) {
			t.Fatalf("unexpected Kong exit %d", code)
		}),
	)

	return cli, ctx
}

func TestCLIDefaultFlags(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "build")

	assert.False(t, cli.Verbose, "Verbose should default to false")
	assert.Equal(t, "./books.db", cli.Database, "Database should default to ./books.db")
	assert.Equal(t, "./ledger.db", cli.LedgerDB, "LedgerDB should default to ./ledger.db")
	assert.Equal(t, "./cache.db", cli.CacheDBFile, "CacheDBFile should default to ./cache.db")
	assert.Equal(t, "24h", cli.CacheTTL, "CacheTTL should default to 24h")
	assert.False(t, cli.Build.SkipMarket, "SkipMarket should default to false")
}

func TestCLIFlagsOverrideDefaults(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t,
		"--verbose",
		"--database", "/custom/books.db",
		"--ledger-db", "/custom/ledger.db",
		"--catalog-yml", "/custom/catalog.yaml",
		"--cache-db-file", "/custom/cache.db",
		"--cache-ttl", "12h",
		"build", "--skip-market")

	assert.True(t, cli.Verbose)
	assert.Equal(t, "/custom/books.db", cli.Database)
	assert.Equal(t, "/custom/ledger.db", cli.LedgerDB)
	assert.Equal(t, "/custom/catalog.yaml", cli.CatalogYML)
	assert.Equal(t, "/custom/cache.db", cli.CacheDBFile)
	assert.Equal(t, "12h", cli.CacheTTL)
	assert.True(t, cli.Build.SkipMarket)
}

func TestRefreshCommandRequiresISBN(t *testing.T) {
	resetCmdState(t)

	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("lothelper"))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"refresh"})
	assert.Error(t, err, "parsing refresh without --isbn should fail")
}

func TestRefreshCommandParsing(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "refresh", "--isbn", "9780441013593")
	assert.Equal(t, "9780441013593", cli.Refresh.ISBN)
}

func TestLedgerCommandParsing(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "ledger", "missing", "--author", "Tom Clancy", "--series", "Jack Ryan")
	assert.Equal(t, "Tom Clancy", cli.Ledger.Missing.Author)
	assert.Equal(t, "Jack Ryan", cli.Ledger.Missing.Series)

	cli, _ = parseCLI(t, "ledger", "bootstrap", "--author", "Tom Clancy")
	assert.Equal(t, "Tom Clancy", cli.Ledger.Bootstrap.Author)
}

func TestAuthorsCommandDefaults(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "authors")
	assert.InDelta(t, 0.9, cli.Authors.Threshold, 0.0001)
}

func TestUpdateGlobalConfig(t *testing.T) {
	resetCmdState(t)

	cli := &CLI{
		Database:    "/tmp/books.db",
		LedgerDB:    "/tmp/ledger.db",
		CatalogYML:  "/tmp/catalog.yaml",
		CacheDBFile: "/tmp/cache.db",
		CacheTTL:    "12h",
	}

	updateGlobalConfig(cli)

	assert.Equal(t, "/tmp/books.db", viper.GetString("database.dbfile"))
	assert.Equal(t, "/tmp/ledger.db", viper.GetString("ledger.dbfile"))
	assert.Equal(t, "/tmp/catalog.yaml", viper.GetString("ledger.catalogfile"))
	assert.Equal(t, "/tmp/cache.db", viper.GetString("cache.dbfile"))
	assert.Equal(t, "12h", viper.GetString("cache.ttl"))

	assert.Equal(t, "/tmp/books.db", config.DatabaseFile)
	assert.Equal(t, "/tmp/ledger.db", config.LedgerFile)
	assert.Equal(t, "/tmp/catalog.yaml", config.SeriesCatalogFile)
}

func TestInitConfigSetsDefaults(t *testing.T) {
	resetCmdState(t)

	// Set defaults directly without calling initConfig to avoid touching
	// the filesystem for a config file.
	viper.SetDefault("database.dbfile", "./books.db")
	viper.SetDefault("ledger.dbfile", "./ledger.db")
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("lots.minvalue", 10.0)
	viper.SetDefault("ebay.marketplace", "EBAY_US")

	assert.Equal(t, "./books.db", viper.GetString("database.dbfile"))
	assert.Equal(t, "./ledger.db", viper.GetString("ledger.dbfile"))
	assert.Equal(t, "./cache.db", viper.GetString("cache.dbfile"))
	assert.Equal(t, "24h", viper.GetString("cache.ttl"))
	assert.InDelta(t, 10.0, viper.GetFloat64("lots.minvalue"), 0.0001)
	assert.Equal(t, "EBAY_US", viper.GetString("ebay.marketplace"))
}

func TestEnvironmentVariableBinding(t *testing.T) {
	resetCmdState(t)

	t.Setenv("EBAY_APP_ID", "test-app-id")
	t.Setenv("EBAY_BEARER_TOKEN", "test-token")

	viper.AutomaticEnv()
	require.NoError(t, viper.BindEnv("ebay.appid", "EBAY_APP_ID"))
	require.NoError(t, viper.BindEnv("ebay.bearertoken", "EBAY_BEARER_TOKEN"))

	assert.Equal(t, "test-app-id", viper.GetString("ebay.appid"))
	assert.Equal(t, "test-token", viper.GetString("ebay.bearertoken"))
}

func TestInitLogging(t *testing.T) {
	// Should not panic at either level
	require.NotPanics(t, func() {
		initLogging(false)
		initLogging(true)
	})
}
