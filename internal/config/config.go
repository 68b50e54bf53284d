package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	AggregationSimple          = "simple"
	AggregationBacklogWeighted = "backlog_weighted"

	defaultPriorityThresholds = "0:low,25:medium,50:high,75:urgent"
)

// PriorityThreshold - нижняя граница числового приоритета для метки.
type PriorityThreshold struct {
	Min   int
	Label string
}

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	LogLevel    string

	TelegramToken string
	TelegramDebug bool

	RedisAddr     string
	RedisPassword string
	RedisLockDB   int

	Location              *time.Location
	BacklogLimit          int
	EfficiencyAggregation string
	PriorityThresholds    []PriorityThreshold
}

var instance *Config
var once sync.Once

// GetConfig возвращает конфигурацию процесса, при ошибке завершает работу.
func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Infof("no .env file loaded: %s", err.Error())
		}

		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("error loading config: %s", err.Error())
		}
		instance = cfg
	})

	return instance
}

// Load читает конфигурацию из переменных окружения.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		TelegramToken:         getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramDebug:         getEnvAsBool("TELEGRAM_DEBUG", false),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisLockDB:           int(getEnvAsInt("REDIS_LOCK_DB", 0)),
		BacklogLimit:          int(getEnvAsInt("BACKLOG_LIMIT", 200)),
		EfficiencyAggregation: getEnv("EFFICIENCY_AGGREGATION", AggregationSimple),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("could not get db url")
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.BacklogLimit <= 0 {
		return nil, fmt.Errorf("BACKLOG_LIMIT must be positive, got %d", cfg.BacklogLimit)
	}

	switch cfg.EfficiencyAggregation {
	case AggregationSimple, AggregationBacklogWeighted:
	default:
		return nil, fmt.Errorf("unknown EFFICIENCY_AGGREGATION %q", cfg.EfficiencyAggregation)
	}

	thresholds, err := ParsePriorityThresholds(getEnv("PRIORITY_THRESHOLDS", defaultPriorityThresholds))
	if err != nil {
		return nil, err
	}
	cfg.PriorityThresholds = thresholds

	return cfg, nil
}

// ParsePriorityThresholds разбирает строку вида "0:low,25:medium".
// Результат отсортирован по возрастанию границы.
func ParsePriorityThresholds(raw string) ([]PriorityThreshold, error) {
	var thresholds []PriorityThreshold
	seen := make(map[string]bool)

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		minStr, label, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid priority threshold %q, expected min:label", part)
		}

		minimum, err := strconv.Atoi(strings.TrimSpace(minStr))
		if err != nil || minimum < 0 {
			return nil, fmt.Errorf("invalid priority threshold minimum %q", minStr)
		}

		label = strings.TrimSpace(label)
		if label == "" || seen[label] {
			return nil, fmt.Errorf("empty or duplicate priority label in %q", part)
		}
		seen[label] = true

		thresholds = append(thresholds, PriorityThreshold{Min: minimum, Label: label})
	}

	if len(thresholds) == 0 {
		return nil, fmt.Errorf("no priority thresholds configured")
	}

	sort.Slice(thresholds, func(i, j int) bool {
		return thresholds[i].Min < thresholds[j].Min
	})
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i].Min == thresholds[i-1].Min {
			return nil, fmt.Errorf("duplicate priority threshold %d", thresholds[i].Min)
		}
	}

	return thresholds, nil
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return int64(val)
	}

	return defaultVal
}
