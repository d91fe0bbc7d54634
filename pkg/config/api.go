package config

import "time"

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment         string
	LogLevel            string
	Addr                string
	StoreDriver         string
	DatabaseURL         string
	MigrationsDir       string
	SQLitePath          string
	MySQLDSN            string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	JWTSecret           string
	AccessTokenTTL      time.Duration
	AdminEmail          string
	AdminPassword       string
	DemoPassword        string
	AllowPasswordless   bool
	SeedData            bool
	LatencyMin          time.Duration
	LatencyMax          time.Duration
	RateLimitRedisAddr  string
	RateLimitRedisPass  string
	RateLimitRedisDB    int
	WebsocketOriginAny  bool
	LeaderboardPageSize int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	loadDotEnv()
	return APIConfig{
		Environment:         GetString("APP_ENV", "development"),
		LogLevel:            GetString("LOG_LEVEL", "info"),
		Addr:                GetString("API_ADDR", ":4000"),
		StoreDriver:         GetString("STORE_DRIVER", "memory"),
		DatabaseURL:         GetString("DATABASE_URL", "postgres://everhack:everhack@db:5432/everhack?sslmode=disable"),
		MigrationsDir:       GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		SQLitePath:          GetString("SQLITE_PATH", "everhack.db"),
		MySQLDSN:            GetString("MYSQL_DSN", "everhack:everhack@tcp(127.0.0.1:3306)/everhack?parseTime=true"),
		RedisAddr:           GetString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       GetString("REDIS_PASSWORD", ""),
		RedisDB:             GetInt("REDIS_DB", 0),
		JWTSecret:           GetString("JWT_SECRET", "supersecuresecret"),
		AccessTokenTTL:      time.Duration(GetInt("ACCESS_TOKEN_TTL_MIN", 60)) * time.Minute,
		AdminEmail:          GetString("ADMIN_EMAIL", "admin@everhack.com"),
		AdminPassword:       GetString("ADMIN_PASSWORD", "EverHack@123"),
		DemoPassword:        GetString("DEMO_PASSWORD", "demo1234"),
		AllowPasswordless:   GetBool("AUTH_ALLOW_PASSWORDLESS", false),
		SeedData:            GetBool("SEED_DATA", true),
		LatencyMin:          time.Duration(GetInt("MOCK_LATENCY_MIN_MS", 0)) * time.Millisecond,
		LatencyMax:          time.Duration(GetInt("MOCK_LATENCY_MAX_MS", 0)) * time.Millisecond,
		RateLimitRedisAddr:  GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass:  GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:    GetInt("RATE_LIMIT_REDIS_DB", 0),
		WebsocketOriginAny:  GetBool("WS_ALLOW_ANY_ORIGIN", true),
		LeaderboardPageSize: GetInt("LEADERBOARD_SIZE", 10),
	}
}
