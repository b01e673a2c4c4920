package application

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lk2023060901/jsonkit/internal/ndjson"
	"github.com/lk2023060901/jsonkit/pkg/compressor"
	zlog "github.com/lk2023060901/jsonkit/pkg/log"
	"github.com/lk2023060901/jsonkit/pkg/metrics"
	"github.com/lk2023060901/jsonkit/pkg/rollout"
	"github.com/lk2023060901/jsonkit/pkg/serializer"
	zviper "github.com/lk2023060901/jsonkit/pkg/util/viper"
)

const (
	// DefaultConfigPath is used when neither the env nor the CLI names a config file.
	DefaultConfigPath = "./config.yaml"
	// ConfigPathEnv overrides DefaultConfigPath.
	ConfigPathEnv = "JSONKIT_CONFIG_FILE_PATH"

	rolloutKeyPrefix = "rollout."
)

// settings mirrors the config file layout.
// Unmarshal goes through the merged view so defaults and env overrides apply per key.
type settings struct {
	Log     zlog.Config            `mapstructure:"log"`
	Logging map[string]zlog.Config `mapstructure:"logging"`
	NDJSON  ndjson.Config          `mapstructure:"ndjson"`
}

// Application is the runtime container for the jsonkit CLI.
// It owns configuration, logging, metrics and the rollout switches.
type Application struct {
	cfg        *zviper.Config
	settings   settings
	configPath string
	loggers    map[string]*zlog.MLogger
	rollout    *rollout.Rollout
	registerer prometheus.Registerer
}

type Option func(*Application)

// WithRegisterer registers metrics to r instead of the prometheus default registerer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(a *Application) {
		a.registerer = r
	}
}

// New creates a new Application instance.
func New(opts ...Option) *Application {
	a := &Application{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init loads configuration and sets up logging, metrics and rollout.
// The config file path is resolved with the following priority:
//  1. CLI: configPath when not empty
//  2. Env: JSONKIT_CONFIG_FILE_PATH
//  3. Default: ./config.yaml, silently skipped when absent
func (a *Application) Init(configPath string) error {
	cfg, err := a.loadConfig(configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if err := a.cfg.Unmarshal(&a.settings); err != nil {
		return errors.Wrap(err, "unmarshal config")
	}

	if err := a.initLogging(); err != nil {
		return err
	}
	metrics.Register(a.registerer)
	a.rollout = rollout.New(a.cfg, rollout.WithKeyPrefix(rolloutKeyPrefix))

	zlog.L().Debug("application initialized",
		zlog.FieldComponent("application"),
		zap.String("config", a.configPath))
	return nil
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// ConfigPath returns the config file that was loaded, empty when none was.
func (a *Application) ConfigPath() string {
	return a.configPath
}

// Rollout returns the rollout switches backed by the "rollout" config section.
func (a *Application) Rollout() *rollout.Rollout {
	return a.rollout
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if a.loggers == nil {
		return &zlog.MLogger{Logger: zlog.L()}
	}
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

// Strategy builds the serializer strategy used by the CLI.
// HTML-safe output has no experimental arm.
func (a *Application) Strategy(htmlSafe, strict bool) *serializer.Strategy {
	if htmlSafe {
		return &serializer.Strategy{Stable: serializer.HTMLSafeJSONSerializer{Strict: strict}}
	}
	return &serializer.Strategy{
		Stable:       serializer.JSONSerializer{Strict: strict},
		Experimental: serializer.FastJSONSerializer{},
		Rollout:      a.rollout,
	}
}

// NDJSONConfig returns the "ndjson" config section.
func (a *Application) NDJSONConfig() ndjson.Config {
	return a.settings.NDJSON
}

// NewProcessor creates an NDJSON processor wired to the rollout strategy.
func (a *Application) NewProcessor(cfg ndjson.Config) *ndjson.Processor {
	p := ndjson.NewProcessor(cfg, ndjson.WithResolver(a.Strategy(cfg.HTMLSafe, cfg.Strict)))
	if lg, ok := a.loggers["ndjson"]; ok {
		p.SetLogger(lg.WithRateGroup("ndjson.line", 1, 60))
	}
	return p
}

// loadConfig resolves config file path and loads it via viper wrapper.
func (a *Application) loadConfig(configPath string) (*zviper.Config, error) {
	cfg := zviper.New()
	setDefaults(cfg)

	explicit := true
	if configPath == "" {
		configPath = strings.TrimSpace(os.Getenv(ConfigPathEnv))
	}
	if configPath == "" {
		configPath = DefaultConfigPath
		explicit = false
	}

	if !explicit {
		if _, err := os.Stat(configPath); err != nil {
			return cfg, nil
		}
	}
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}
	a.configPath = configPath
	return cfg, nil
}

func setDefaults(cfg *zviper.Config) {
	cfg.SetDefault("log.level", "info")
	cfg.SetDefault("log.format", zlog.FormatText)
	cfg.SetDefault("log.stdout", false)
	cfg.SetDefault("log.file.rootpath", "")
	cfg.SetDefault("log.file.filename", "")
	cfg.SetDefault(rolloutKeyPrefix+rollout.OptionJSONDumps, 0.0)
	cfg.SetDefault(rolloutKeyPrefix+rollout.OptionJSONLoads, 0.0)
	cfg.SetDefault("ndjson.workers", 4)
	cfg.SetDefault("ndjson.maxlinebytes", ndjson.DefaultMaxLineBytes)
	cfg.SetDefault("ndjson.compression", compressor.None)
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	if err := a.initGlobalLogger(); err != nil {
		return err
	}
	if err := a.initModuleLoggersFromConfig(); err != nil {
		return err
	}
	return nil
}

// initGlobalLogger configures the process-wide logger from the "log" section.
// Every key can be overridden by JSONKIT_LOG_* env vars, e.g. JSONKIT_LOG_LEVEL.
// Without stdout or a file configured, logs are discarded so that they never
// mix with JSON written to stdout.
func (a *Application) initGlobalLogger() error {
	cfg := a.settings.Log
	logger, props, err := zlog.InitLogger(&cfg)
	if err != nil {
		return fmt.Errorf("init global logger: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig creates named loggers from YAML config under "logging" key.
//
// Example:
//
//	logging:
//	  ndjson:
//	    level: debug
//	    file:
//	      rootpath: ./logs
//	      filename: ndjson.log
func (a *Application) initModuleLoggersFromConfig() error {
	raw := a.settings.Logging
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = (&zlog.MLogger{Logger: logger}).With(zlog.FieldModule(name))
	}

	return nil
}
