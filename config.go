package takkencrawler

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Variant selects the extraction strategy.
type Variant string

const (
	// VariantListing reads every field from the result table row.
	VariantListing Variant = "listing"
	// VariantDetail opens each row's detail view and reads a labeled layout.
	VariantDetail Variant = "detail"
)

const (
	defaultSourceURL  = "https://etsuran2.mlit.go.jp/TAKKEN/kensetuKensaku.do"
	defaultOutputPath = "data/results.csv"
)

var ErrInvalidConfig = errors.New("invalid config")

// configService wraps viper the same way for every entry point.
type configService struct {
	v *viper.Viper
}

// NewConfigService reads .env from the working directory, ./config or /,
// with environment variables taking precedence.
func NewConfigService() *configService {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/")
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Printf("Error reading Config file: %v\n", err)
		}
	}

	return &configService{v: v}
}

func newConfigServiceFrom(v *viper.Viper) *configService {
	return &configService{v: v}
}

// EnvString retrieves a string value, falling back to defaultValue.
func (c *configService) EnvString(envName string, defaultValue ...string) string {
	value := c.v.Get(envName)
	if value != nil && fmt.Sprint(value) != "" {
		return fmt.Sprint(value)
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}

	return ""
}

func (c *configService) Add(name string, configuration interface{}) {
	c.v.Set(name, configuration)
}

func (c *configService) IsSet(path string) bool {
	return c.v.IsSet(path) && c.v.GetString(path) != ""
}

func (c *configService) GetString(path string) string {
	return c.v.GetString(path)
}

func (c *configService) GetInt(path string) int {
	return c.v.GetInt(path)
}

func (c *configService) GetBool(path string) bool {
	return c.v.GetBool(path)
}

func (c *configService) GetDuration(path string) time.Duration {
	return c.v.GetDuration(path)
}

// Config is the immutable run configuration handed to the crawler.
type Config struct {
	Name              string
	SourceURL         string
	OutputPath        string
	Variant           Variant
	MaxPages          int
	PerPage           int
	NavigationTimeout time.Duration
	CheckRobotsTxt    bool

	Engine  Engine
	Search  SearchConditions
	Listing ListingLayout
	Detail  DetailLayout

	Sinks SinkConfig
}

// SinkConfig enables the optional secondary copies of accepted records and
// the post-run upload. Empty values leave the corresponding feature off.
type SinkConfig struct {
	GCPProjectID       string
	GCPCredentialsPath string
	CloudLogging       bool

	GCSBucket string

	BigQueryDataset string
	BigQueryTable   string

	DatastoreKind string

	MongoHost     string
	MongoPort     string
	MongoUsername string
	MongoPassword string
	MongoDatabase string

	APIEndpoint string
	APIUsername string
	APIPassword string
}

func getDefaultConfig() Config {
	return Config{
		Name:              "takken",
		SourceURL:         defaultSourceURL,
		OutputPath:        defaultOutputPath,
		Variant:           VariantListing,
		MaxPages:          10,
		PerPage:           10,
		NavigationTimeout: 30 * time.Second,
		CheckRobotsTxt:    false,
		Engine:            getDefaultEngine(),
		Search:            DefaultSearchConditions(),
		Listing:           DefaultListingLayout(),
		Detail:            DefaultDetailLayout(),
	}
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return getDefaultConfig()
}

// LoadConfig overlays values found in the config service onto the defaults.
func LoadConfig(cs *configService) (Config, error) {
	cfg := getDefaultConfig()

	cfg.Name = cs.EnvString("APP_NAME", cfg.Name)
	cfg.SourceURL = cs.EnvString("SOURCE_URL", cfg.SourceURL)
	cfg.OutputPath = cs.EnvString("OUTPUT_PATH", cfg.OutputPath)
	cfg.Variant = Variant(cs.EnvString("VARIANT", string(cfg.Variant)))
	if cs.IsSet("MAX_PAGES") {
		cfg.MaxPages = cs.GetInt("MAX_PAGES")
	}
	if cs.IsSet("PER_PAGE") {
		cfg.PerPage = cs.GetInt("PER_PAGE")
	}
	if cs.IsSet("NAVIGATION_TIMEOUT") {
		cfg.NavigationTimeout = cs.GetDuration("NAVIGATION_TIMEOUT")
	}
	if cs.IsSet("CHECK_ROBOTS_TXT") {
		cfg.CheckRobotsTxt = cs.GetBool("CHECK_ROBOTS_TXT")
	}

	eng := Engine{
		BrowserType:            cs.GetString("BROWSER_TYPE"),
		Adapter:                cs.GetString("ADAPTER"),
		ForceInstallPlaywright: cs.GetBool("FORCE_INSTALL_PLAYWRIGHT"),
		UserAgent:              cs.GetString("USER_AGENT"),
		BlockResources:         cs.GetBool("BLOCK_RESOURCES"),
	}
	if cs.IsSet("HEADLESS") {
		eng.Headless = boolPtr(cs.GetBool("HEADLESS"))
	}
	overrideEngineDefaults(&cfg.Engine, &eng)

	cfg.Listing.NextPageText = cs.EnvString("NEXT_PAGE_TEXT", cfg.Listing.NextPageText)
	cfg.Listing.NextPageSelector = cs.EnvString("NEXT_PAGE_SELECTOR", cfg.Listing.NextPageSelector)
	cfg.Search.KenCode = cs.EnvString("SEARCH_KEN_CODE", cfg.Search.KenCode)
	cfg.Search.Gyosyu = cs.EnvString("SEARCH_GYOSYU", cfg.Search.Gyosyu)
	cfg.Search.GyosyuType = cs.EnvString("SEARCH_GYOSYU_TYPE", cfg.Search.GyosyuType)
	cfg.Search.DispCount = cs.EnvString("SEARCH_DISP_COUNT", cfg.Search.DispCount)

	cfg.Sinks = SinkConfig{
		GCPProjectID:       cs.EnvString("GCP_PROJECT_ID"),
		GCPCredentialsPath: cs.EnvString("GCP_CREDENTIALS_PATH"),
		CloudLogging:       cs.GetBool("CLOUD_LOGGING"),
		GCSBucket:          cs.EnvString("GCS_BUCKET"),
		BigQueryDataset:    cs.EnvString("BIGQUERY_DATASET"),
		BigQueryTable:      cs.EnvString("BIGQUERY_TABLE"),
		DatastoreKind:      cs.EnvString("DATASTORE_KIND"),
		MongoHost:          cs.EnvString("DB_HOST"),
		MongoPort:          cs.EnvString("DB_PORT", "27017"),
		MongoUsername:      cs.EnvString("DB_USERNAME"),
		MongoPassword:      cs.EnvString("DB_PASSWORD"),
		MongoDatabase:      cs.EnvString("DB_DATABASE", cfg.Name),
		APIEndpoint:        cs.EnvString("API_ENDPOINT"),
		APIUsername:        cs.EnvString("API_USERNAME"),
		APIPassword:        cs.EnvString("API_PASSWORD"),
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the crawl loop cannot run with.
func (c Config) Validate() error {
	switch c.Variant {
	case VariantListing, VariantDetail:
	default:
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidConfig, c.Variant)
	}
	if c.SourceURL == "" {
		return fmt.Errorf("%w: source url is empty", ErrInvalidConfig)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalidConfig)
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("%w: max pages must be positive, got %d", ErrInvalidConfig, c.MaxPages)
	}
	if c.PerPage <= 0 {
		return fmt.Errorf("%w: per page must be positive, got %d", ErrInvalidConfig, c.PerPage)
	}
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("%w: navigation timeout must be positive", ErrInvalidConfig)
	}
	switch c.Engine.Adapter {
	case PlayWrightEngine, RodEngine:
	default:
		return fmt.Errorf("%w: unknown adapter %q", ErrInvalidConfig, c.Engine.Adapter)
	}
	return nil
}

func boolPtr(b bool) *bool {
	return &b
}
