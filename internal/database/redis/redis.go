package redis

import (
	"context"
	"log"
	"time"

	"portfolio-backend/internal/config"

	"github.com/redis/go-redis/v9"
)

var Redis_Client *redis.Client

func Connect(cfg *config.RedisConfig) {
	Redis_Client = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := Redis_Client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Error connecting to Redis: %s", err)
	} else {
		log.Println("Successfully connected to Redis")
	}
}

func Close() {
	if Redis_Client != nil {
		if err := Redis_Client.Close(); err != nil {
			log.Printf("Error closing Redis connection: %s", err)
		}
	}
}
