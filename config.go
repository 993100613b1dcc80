package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string        `yaml:"git_commit" envconfig:"BCAT_GIT_COMMIT"`
	GitTag                  string        `yaml:"git_tag" envconfig:"BCAT_GIT_TAG"`
	BuildTime               string        `yaml:"build_time" envconfig:"BCAT_BUILD_TIME"`
	IsProduction            bool          `yaml:"is_production" envconfig:"BCAT_IS_PRODUCTION"`
	LogLevel                zapcore.Level `yaml:"log_level" envconfig:"BCAT_LOG_LEVEL"`
	LogFolder               string        `yaml:"log_folder" envconfig:"BCAT_LOG_FOLDER"`
	LogMaxSize              int           `yaml:"log_max_size" envconfig:"BCAT_LOG_MAX_SIZE"`
	OpsEndpointsEnable      bool          `yaml:"ops_endpoints_enable" envconfig:"BCAT_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool          `yaml:"profiler_endpoints_enable" envconfig:"BCAT_PROFILER_ENDPOINTS_ENABLE"`
	Server                  ServerConfig  `yaml:"server"`
	Storage                 StorageConfig `yaml:"storage"`
	Redis                   RedisConfig   `yaml:"redis"`
	BoltDB                  BoltDBConfig  `yaml:"boltdb"`
	SQLite                  SQLiteConfig  `yaml:"sqlite"`
	Events                  EventsConfig  `yaml:"events"`
	AMQP                    AMQPConfig    `yaml:"amqp"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BCAT_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BCAT_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BCAT_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BCAT_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BCAT_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BCAT_SERVER_SHUTDOWN_TIMEOUT"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"BCAT_STORAGE_DRIVER"` // memory, redis, bolt or sqlite
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BCAT_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BCAT_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BCAT_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BCAT_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BCAT_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BCAT_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BCAT_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BCAT_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BCAT_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BCAT_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BCAT_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BCAT_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BCAT_BOLTDB_BUCKET_NAME"`
}

type SQLiteConfig struct {
	FilePath    string        `yaml:"filepath" envconfig:"BCAT_SQLITE_FILE_PATH"`
	BusyTimeout time.Duration `yaml:"busy_timeout" envconfig:"BCAT_SQLITE_BUSY_TIMEOUT"`
}

type EventsConfig struct {
	Driver       string `yaml:"driver" envconfig:"BCAT_EVENTS_DRIVER"` // none, redis or amqp
	MirrorEnable bool   `yaml:"mirror_enable" envconfig:"BCAT_EVENTS_MIRROR_ENABLE"`
}

type AMQPConfig struct {
	Host     string `yaml:"host" envconfig:"BCAT_AMQP_HOST"`
	Port     string `yaml:"port" envconfig:"BCAT_AMQP_PORT"`
	Username string `yaml:"username" envconfig:"BCAT_AMQP_USERNAME"`
	Password string `yaml:"password" envconfig:"BCAT_AMQP_PASSWORD" json:"-"`
	Exchange string `yaml:"exchange" envconfig:"BCAT_AMQP_EXCHANGE"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 30 * time.Second
	}

	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 30 * time.Second
	}

	if len(config.LogFolder) == 0 {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if len(config.Storage.Driver) == 0 {
		config.Storage.Driver = MemoryStorage
	}

	if len(config.Events.Driver) == 0 {
		config.Events.Driver = NoEvents
	}

	switch config.Storage.Driver {
	case MemoryStorage, RedisStorage, BoltStorage, SQLiteStorage:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedStorage, config.Storage.Driver)
	}

	switch config.Events.Driver {
	case NoEvents, RedisEvents, AMQPEvents:
	default:
		return fmt.Errorf("unsupported events driver: %q", config.Events.Driver)
	}

	if config.RedisRequired() && (len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0) {
		return errors.New("make sure to set valid redis address and port in configuration file")
	}

	if config.Events.MirrorEnable {
		if config.Events.Driver != RedisEvents {
			return errors.New("mirroring of catalog events requires the redis events driver")
		}
		if config.Storage.Driver == BoltStorage {
			return errors.New("mirroring of catalog events cannot target the primary bolt storage")
		}
	}

	if config.Storage.Driver == BoltStorage || config.Events.MirrorEnable {
		if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
			return errors.New("make sure to set valid boltdb file path and bucket name in configuration file")
		}
	}

	if config.Storage.Driver == SQLiteStorage && len(config.SQLite.FilePath) == 0 {
		return errors.New("make sure to set valid sqlite file path in configuration file")
	}

	if config.Events.Driver == AMQPEvents {
		if len(config.AMQP.Host) == 0 || len(config.AMQP.Port) == 0 {
			return errors.New("make sure to set valid amqp address and port in configuration file")
		}
		if len(config.AMQP.Exchange) == 0 {
			config.AMQP.Exchange = "catalog"
		}
	}

	return nil
}

// RedisRequired tells whether any configured component talks to redis.
func (c *Config) RedisRequired() bool {
	return c.Storage.Driver == RedisStorage || c.Events.Driver == RedisEvents
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. The environment file is optional.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(configFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BCAT`.
	err = LoadConfigEnvs("BCAT", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
