package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stockmcp/internal/clients/eodhd"
	"github.com/bobmcallan/stockmcp/internal/clients/yahoo"
	"github.com/bobmcallan/stockmcp/internal/common"
	"github.com/bobmcallan/stockmcp/internal/interfaces"
	"github.com/bobmcallan/stockmcp/internal/services/quote"
	"github.com/bobmcallan/stockmcp/internal/storage/pricefile"
)

// App holds the initialized provider, fallback table, quote service and MCP server.
// It is the shared core used by cmd/stock-server.
type App struct {
	Config       *common.Config
	Logger       *common.Logger
	LiveProvider interfaces.LiveProvider
	Fallback     *pricefile.Store
	QuoteService interfaces.QuoteService
	MCPServer    *server.MCPServer
	StartupTime  time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: explicit path, STOCK_CONFIG, the
// binary directory, then config/stockmcp.toml for development.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("STOCK_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "stockmcp.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stockmcp.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp initializes the provider, fallback table, quote service and MCP server.
// configPath may be empty, in which case the default resolution logic is used.
// A missing config file is not an error; defaults and environment apply.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	config.Fallback.Path = resolveDataPath(config.Fallback.Path, binDir)

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	return newAppWith(config, logger, newLiveProvider(config, logger), startupStart), nil
}

// newAppWith wires an App around an already chosen live provider.
func newAppWith(config *common.Config, logger *common.Logger, live interfaces.LiveProvider, startupStart time.Time) *App {
	fallback := pricefile.NewStore(config.Fallback.Path, logger)
	if n, err := fallback.Load(); err != nil {
		logger.Warn().Err(err).Str("path", fallback.Path()).Msg("Fallback price table unavailable")
	} else {
		logger.Info().Int("symbols", n).Str("path", fallback.Path()).Msg("Fallback price table loaded")
	}

	quoteService := quote.NewService(live, fallback, logger,
		quote.WithLiveTimeout(config.Provider.GetTimeout()),
	)

	mcpServer := server.NewMCPServer(
		config.Server.Name,
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:       config,
		Logger:       logger,
		LiveProvider: live,
		Fallback:     fallback,
		QuoteService: quoteService,
		MCPServer:    mcpServer,
		StartupTime:  startupStart,
	}

	a.registerTools()

	logger.Info().
		Str("provider", providerName(live)).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a
}

// newLiveProvider builds the configured provider. EODHD without an API key
// degrades to Yahoo so the server still starts.
func newLiveProvider(config *common.Config, logger *common.Logger) interfaces.LiveProvider {
	if config.Provider.Name == common.ProviderEODHD {
		key, err := common.ResolveAPIKey("eodhd_api_key", config.Clients.EODHD.APIKey)
		if err == nil {
			return eodhd.NewClient(key,
				eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
				eodhd.WithLogger(logger),
				eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
				eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
			)
		}
		logger.Warn().Msg("EODHD API key not configured - using Yahoo Finance")
	}

	return yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
	)
}

// registerTools registers every tool in the registry on the App's MCPServer.
func (a *App) registerTools() {
	for _, entry := range Registry(a.QuoteService, a.Logger) {
		a.MCPServer.AddTool(entry.Tool, entry.Handler)
	}
}

// Close releases resources held by the App. Safe to call more than once.
func (a *App) Close() {
	a.Logger.Debug().Msg("App closed")
}

// resolveDataPath keeps absolute paths and paths that exist relative to the
// working directory; anything else is taken relative to the binary directory.
func resolveDataPath(path, binDir string) string {
	if path == "" || filepath.IsAbs(path) || fileExists(path) {
		return path
	}
	return filepath.Join(binDir, path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func providerName(p interfaces.LiveProvider) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}
