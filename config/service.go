package config

import (
	"os"
	"strconv"
)

// Service holds settings for the HTTP server and long-running tools.
type Service struct {
	Addr      string
	CachePath string
	TasksDir  string
	Workers   int
	LogLevel  string
}

func LoadService() Service {
	return Service{
		Addr:      GetEnv("PHYSBENCH_ADDR", ":8080"),
		CachePath: GetEnv("PHYSBENCH_CACHE", ""),
		TasksDir:  GetEnv("PHYSBENCH_TASKS_DIR", ""),
		Workers:   getEnvAsInt("PHYSBENCH_WORKERS", 0),
		LogLevel:  GetEnv("PHYSBENCH_LOG_LEVEL", "info"),
	}
}

// GetEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not set.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
