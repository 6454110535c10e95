package config

import (
	"os"
	"strings"
)

const (
	portEnvVar        = "PORT"
	appNameVar        = "APP_NAME"
	folderEnvVar      = "FOLDER"
	logLevelEnvVar    = "LOG_LEVEL"
	storeDriverEnvVar = "STORE_DRIVER"
	storeDSNEnvVar    = "STORE_DSN"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "KB Chat")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, "info")
}

// GetStoreDriver selects the key-value backend: yaml, sqlite, postgres or memory.
func (EnvVars) GetStoreDriver() string {
	return strings.ToLower(GetEnv(storeDriverEnvVar, "yaml"))
}

// GetStoreDSN is the backend specific location (file path or connection string).
// Blank means a default file inside the data folder.
func (EnvVars) GetStoreDSN() string {
	return GetEnv(storeDSNEnvVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
