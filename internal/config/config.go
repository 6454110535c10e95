package config

type Config interface {
	EnvConfig
	CorsConfig
	RelayConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetLogLevel() string
	GetStoreDriver() string
	GetStoreDSN() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Relay
	Sessions
}

func New() Config {
	return mainConfig{}
}
