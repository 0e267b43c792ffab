package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Get returns the environment value for key, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type Config struct {
	Port string `yaml:"port"`

	DBDriver    string `yaml:"db_driver"` // sqlite | postgres
	DBPath      string `yaml:"db_path"`
	DatabaseURL string `yaml:"database_url"`
	SeedPath    string `yaml:"seed_path"`

	Solver            string        `yaml:"solver"` // local | nearest | http
	SolverURL         string        `yaml:"solver_url"`
	SolverTimeout     time.Duration `yaml:"solver_timeout"`
	SolverMaxAttempts int           `yaml:"solver_max_attempts"`
	ACOSeed           uint64        `yaml:"aco_seed"`

	SolveCache    string        `yaml:"solve_cache"` // auto | redis | db | off
	RedisAddr     string        `yaml:"redis_addr"`
	SolveCacheTTL time.Duration `yaml:"solve_cache_ttl"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	FrameCacheSize int           `yaml:"frame_cache_size"`
	StepsPerEdge   int           `yaml:"steps_per_edge"`
	FrameDelay     time.Duration `yaml:"frame_delay"`
	HistoryLimit   int           `yaml:"history_limit"`
	CORSOrigins    []string      `yaml:"cors_origins"`
}

func Defaults() Config {
	return Config{
		Port:              "8080",
		DBDriver:          "sqlite",
		DBPath:            "data/app.db",
		SeedPath:          "data/seeds/datasets.json",
		Solver:            "local",
		SolverTimeout:     30 * time.Second,
		SolverMaxAttempts: 1,
		SolveCache:        "auto",
		SolveCacheTTL:     10 * time.Minute,
		KafkaTopic:        "tour-runs",
		FrameCacheSize:    256,
		StepsPerEdge:      30,
		FrameDelay:        50 * time.Millisecond,
		HistoryLimit:      50,
		CORSOrigins:       []string{"*"},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE if any, then individual environment variables.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()

	if path, ok := lookup("CONFIG_FILE"); ok && path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config: read %q: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("load config: parse %q: %w", path, err)
		}
	}

	e := envReader{lookup: lookup}
	e.setString("PORT", &cfg.Port)
	e.setString("DB_DRIVER", &cfg.DBDriver)
	e.setString("DB_PATH", &cfg.DBPath)
	e.setString("DATABASE_URL", &cfg.DatabaseURL)
	e.setString("SEED_PATH", &cfg.SeedPath)
	e.setString("SOLVER", &cfg.Solver)
	e.setString("SOLVER_URL", &cfg.SolverURL)
	e.setDuration("SOLVER_TIMEOUT", &cfg.SolverTimeout)
	e.setInt("SOLVER_MAX_ATTEMPTS", &cfg.SolverMaxAttempts)
	e.setUint("ACO_SEED", &cfg.ACOSeed)
	e.setString("SOLVE_CACHE", &cfg.SolveCache)
	e.setString("REDIS_ADDR", &cfg.RedisAddr)
	e.setDuration("SOLVE_CACHE_TTL", &cfg.SolveCacheTTL)
	e.setList("KAFKA_BROKERS", &cfg.KafkaBrokers)
	e.setString("KAFKA_TOPIC", &cfg.KafkaTopic)
	e.setInt("FRAME_CACHE_SIZE", &cfg.FrameCacheSize)
	e.setInt("STEPS_PER_EDGE", &cfg.StepsPerEdge)
	e.setDuration("FRAME_DELAY", &cfg.FrameDelay)
	e.setInt("HISTORY_LIMIT", &cfg.HistoryLimit)
	e.setList("CORS_ORIGINS", &cfg.CORSOrigins)
	if e.err != nil {
		return Config{}, fmt.Errorf("load config: %w", e.err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}

	switch c.Solver {
	case "local", "nearest":
	case "http":
		if strings.TrimSpace(c.SolverURL) == "" {
			return errors.New("SOLVER_URL is required for the http solver")
		}
	default:
		return fmt.Errorf("unknown SOLVER %q", c.Solver)
	}

	switch c.SolveCache {
	case "auto", "db", "off":
	case "redis":
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("REDIS_ADDR is required for the redis solve cache")
		}
	default:
		return fmt.Errorf("unknown SOLVE_CACHE %q", c.SolveCache)
	}
	if c.SolveCacheTTL < 0 {
		return fmt.Errorf("SOLVE_CACHE_TTL must not be negative, got %s", c.SolveCacheTTL)
	}

	if c.StepsPerEdge < 1 {
		return fmt.Errorf("STEPS_PER_EDGE must be positive, got %d", c.StepsPerEdge)
	}
	if c.FrameDelay < 0 {
		return fmt.Errorf("FRAME_DELAY must not be negative, got %s", c.FrameDelay)
	}
	if c.FrameCacheSize < 1 {
		return fmt.Errorf("FRAME_CACHE_SIZE must be positive, got %d", c.FrameCacheSize)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// DSN is the data source name db.Open expects for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DBPath
}

// SolveCacheBackend resolves "auto" to redis when REDIS_ADDR is set and to no
// cache otherwise.
func (c Config) SolveCacheBackend() string {
	if c.SolveCache != "auto" {
		return c.SolveCache
	}
	if c.RedisAddr != "" {
		return "redis"
	}
	return "off"
}

// envReader applies environment overrides, keeping the first parse error.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) setString(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) setInt(key string, dst *int) {
	v, ok := e.get(key)
	if !ok || e.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

func (e *envReader) setUint(key string, dst *uint64) {
	v, ok := e.get(key)
	if !ok || e.err != nil {
		return
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

func (e *envReader) setDuration(key string, dst *time.Duration) {
	v, ok := e.get(key)
	if !ok || e.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = d
}

func (e *envReader) setList(key string, dst *[]string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
