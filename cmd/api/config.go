package main

import "time"

// Config is populated from the environment (after an optional .env load).
// REDIS_URL is optional: without it the presence cache and the offline
// notification queue are disabled and the engine runs store-only.
type Config struct {
	DBURL     string `env:"DB_URL,required=true"`
	RedisURL  string `env:"REDIS_URL"`
	JWTSecret string `env:"JWT_SECRET,required=true"`

	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=8080"`

	LogLevel string `env:"LOG_LEVEL,default=info"`

	SendBufferSize   int           `env:"SEND_BUFFER_SIZE,default=128"`
	StoreTimeout     time.Duration `env:"STORE_TIMEOUT,default=5s"`
	QueueConcurrency int           `env:"QUEUE_CONCURRENCY,default=10"`
}
