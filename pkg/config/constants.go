package config

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "telecare"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside envconfig tags (error
// messages, tests, ops tooling).
const (
	EnvAppEnv     = "TELECARE_APP_ENV"
	EnvPort       = "TELECARE_APP_PORT"
	EnvDBDSN      = "TELECARE_DB_DSN"
	EnvRedisURL   = "TELECARE_REDIS_URL"
	EnvJWTSecret  = "TELECARE_JWT_SECRET"
	EnvJWTIssuer  = "TELECARE_JWT_ISSUER"
	EnvJWTExpMins = "TELECARE_JWT_EXPIRATION_MINUTES"
)
