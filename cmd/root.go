package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"lothelper/internal/book"
	"lothelper/internal/cache"
	"lothelper/internal/config"
	"lothelper/internal/identity"
	"lothelper/internal/ledger"
	"lothelper/internal/lots"
	"lothelper/internal/market"
)

// CLI represents the complete command structure for the lothelper application
type CLI struct {
	// Global flags
	Verbose bool `help:"Enable debug logging"`

	// Database flags
	Database   string `help:"Path to the book catalog SQLite database" default:"./books.db"`
	LedgerDB   string `help:"Path to the series ledger SQLite database" default:"./ledger.db"`
	CatalogYML string `help:"Path to an optional YAML series catalog extending the builtin seeds"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 24h)" default:"24h"`

	Build   BuildCmd   `cmd:"" help:"Group the catalog into lot candidates and persist the ranked list"`
	Refresh RefreshCmd `cmd:"" help:"Re-enrich only the lot candidates containing one changed ISBN"`
	Authors AuthorsCmd `cmd:"" help:"Cluster the catalog's raw author spellings into reviewable groups"`
	Ledger  LedgerCmd  `cmd:"" help:"Inspect and seed the series ledger"`
}

// BuildCmd represents the build command
type BuildCmd struct {
	SkipMarket bool `help:"Skip market enrichment and persist skeleton estimates only" default:"false"`
}

// RefreshCmd represents the refresh command
type RefreshCmd struct {
	ISBN string `help:"ISBN whose book changed" required:""`
}

// AuthorsCmd represents the authors command
type AuthorsCmd struct {
	Threshold float64 `help:"Similarity threshold for merging author spellings" default:"0.9"`
}

// LedgerCmd represents the ledger command and its subcommands
type LedgerCmd struct {
	Bootstrap LedgerBootstrapCmd `cmd:"" help:"Seed expected series titles for an author from the local catalog"`
	Missing   LedgerMissingCmd   `cmd:"" help:"List the expected volumes of a series not covered by any owned ISBN"`
}

// LedgerBootstrapCmd seeds one author's series from the local catalog
type LedgerBootstrapCmd struct {
	Author string `help:"Author name to bootstrap" required:""`
}

// LedgerMissingCmd lists missing volumes for one series
type LedgerMissingCmd struct {
	Author string `help:"Author name" required:""`
	Series string `help:"Series name" required:""`
}

// Execute runs the Kong-based CLI
func Execute() {
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("lothelper"),
		kong.Description("Groups a scanned-book catalog into sellable multi-book lots."),
		kong.UsageOnError(),
	)

	initLogging(cli.Verbose)
	updateGlobalConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Database defaults
	viper.SetDefault("database.dbfile", "./books.db")

	// Ledger defaults
	viper.SetDefault("ledger.dbfile", "./ledger.db")
	viper.SetDefault("ledger.catalogfile", "")

	// Cache defaults
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "24h")

	// Lot defaults
	viper.SetDefault("lots.minvalue", 10.0)

	// eBay defaults; credentials come from config or environment
	viper.SetDefault("ebay.marketplace", "EBAY_US")

	// Enable environment variable support
	viper.AutomaticEnv()
	// Bind specific environment variables to config keys
	if err := viper.BindEnv("ebay.appid", "EBAY_APP_ID"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
	if err := viper.BindEnv("ebay.bearertoken", "EBAY_BEARER_TOKEN"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	// Update config based on CLI flags
	viper.Set("database.dbfile", cli.Database)
	viper.Set("ledger.dbfile", cli.LedgerDB)
	if cli.CatalogYML != "" {
		viper.Set("ledger.catalogfile", cli.CatalogYML)
	}

	// Update cache config
	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)

	config.InitConfig()
}

// engine bundles the opened collaborators behind one cleanup function.
type engine struct {
	catalog  *book.SQLiteCatalog
	ledger   *ledger.Ledger
	sink     *lots.SQLiteSink
	pipeline *lots.Pipeline
	cleanup  func()
}

// newEngine opens the catalog, ledger, cache and sink and wires the
// pipeline. withMarket controls whether the eBay-backed snapshot provider
// is attached.
func newEngine(withMarket bool) (*engine, error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	catalog := book.NewSQLiteCatalog(config.DatabaseFile)
	if err := catalog.Connect(); err != nil {
		return nil, err
	}
	closers = append(closers, func() { _ = catalog.Close() })

	store := ledger.NewSQLiteStore(config.LedgerFile)
	if err := store.Connect(); err != nil {
		cleanup()
		return nil, err
	}
	closers = append(closers, func() { _ = store.Close() })

	seeds, err := ledger.NewLocalCatalog(config.SeriesCatalogFile)
	if err != nil {
		cleanup()
		return nil, err
	}

	led := ledger.New(store, seeds)
	if err := led.Load(); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	sink, err := lots.OpenSink(config.DatabaseFile)
	if err != nil {
		cleanup()
		return nil, err
	}
	closers = append(closers, func() { _ = sink.Close() })

	var provider market.Provider
	if withMarket {
		cacheDB, err := cache.Open(config.CacheFile)
		if err != nil {
			cleanup()
			return nil, err
		}
		closers = append(closers, func() { _ = cacheDB.Close() })

		ebay := market.NewEbayClient(market.EbayConfig{
			AppID:       config.EbayAppID,
			BearerToken: config.EbayBearerToken,
			Marketplace: config.EbayMarketplace,
		})
		provider, err = market.NewCachedProvider(ebay, cacheDB, config.CacheTTL)
		if err != nil {
			cleanup()
			return nil, err
		}
	}

	return &engine{
		catalog: catalog,
		ledger:  led,
		sink:    sink,
		pipeline: &lots.Pipeline{
			Catalog:  catalog,
			Ledger:   led,
			Market:   provider,
			Genres:   lots.CategoryGrouper{},
			MinValue: config.MinLotValue,
		},
		cleanup: cleanup,
	}, nil
}

// persist writes the candidate list and flushes the ledger if dirty.
func (e *engine) persist(candidates []*lots.Candidate) error {
	if err := e.sink.ReplaceAll(candidates); err != nil {
		return fmt.Errorf("failed to persist lots: %w", err)
	}
	if err := e.ledger.SaveIfDirty(); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// Run methods for each command

func (b *BuildCmd) Run() error {
	eng, err := newEngine(!b.SkipMarket)
	if err != nil {
		return err
	}
	defer eng.cleanup()

	ctx := context.Background()
	var candidates []*lots.Candidate
	if b.SkipMarket {
		candidates, err = eng.pipeline.BuildSkeletons()
	} else {
		candidates, err = eng.pipeline.BuildAll(ctx)
	}
	if err != nil {
		return err
	}

	if err := eng.persist(candidates); err != nil {
		return err
	}
	slog.Info("Lot candidates built", "count", len(candidates), "enriched", !b.SkipMarket)
	for _, c := range candidates {
		fmt.Printf("%-6s %-50s $%8.2f  %5.1f %s\n",
			c.Strategy, c.Name, c.EstimatedValue, c.ProbabilityScore, c.ProbabilityLabel)
	}
	return nil
}

func (r *RefreshCmd) Run() error {
	eng, err := newEngine(true)
	if err != nil {
		return err
	}
	defer eng.cleanup()

	candidates, err := eng.pipeline.RefreshISBN(context.Background(), r.ISBN)
	if err != nil {
		return err
	}
	if err := eng.persist(candidates); err != nil {
		return err
	}
	slog.Info("Lot candidates refreshed", "isbn", r.ISBN, "count", len(candidates))
	return nil
}

func (a *AuthorsCmd) Run() error {
	catalog := book.NewSQLiteCatalog(config.DatabaseFile)
	if err := catalog.Connect(); err != nil {
		return err
	}
	defer func() { _ = catalog.Close() }()

	books, err := catalog.ListBooks()
	if err != nil {
		return err
	}

	var names []string
	seen := make(map[string]bool)
	for _, b := range books {
		name := b.PrimaryAuthor()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	clusters := identity.ClusterAuthors(names, a.Threshold)
	keys := make([]string, 0, len(clusters))
	for key := range clusters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Printf("%s\n", key)
		for _, name := range clusters[key] {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}

func (b *LedgerBootstrapCmd) Run() error {
	store := ledger.NewSQLiteStore(config.LedgerFile)
	if err := store.Connect(); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	seeds, err := ledger.NewLocalCatalog(config.SeriesCatalogFile)
	if err != nil {
		return err
	}
	led := ledger.New(store, seeds)
	if err := led.Load(); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	if !led.Bootstrap(b.Author) {
		fmt.Printf("No new series seeded for %s\n", b.Author)
		return led.SaveIfDirty()
	}
	for series, entry := range led.EntriesForAuthor(b.Author) {
		fmt.Printf("%s: %d expected volumes\n", series, len(entry.ExpectedVols))
	}
	return led.SaveIfDirty()
}

func (m *LedgerMissingCmd) Run() error {
	store := ledger.NewSQLiteStore(config.LedgerFile)
	if err := store.Connect(); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	seeds, err := ledger.NewLocalCatalog(config.SeriesCatalogFile)
	if err != nil {
		return err
	}
	led := ledger.New(store, seeds)
	if err := led.Load(); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	missing := led.MissingFor(m.Author, m.Series)
	if len(missing) == 0 {
		fmt.Printf("No missing volumes recorded for %s / %s\n", m.Author, m.Series)
		return nil
	}
	keys := make([]string, 0, len(missing))
	for k := range missing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if title := missing[k]; title != "" {
			fmt.Printf("#%s %s\n", k, title)
		} else {
			fmt.Printf("#%s\n", k)
		}
	}
	return nil
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
