package config

import (
	"context"
	"os"

	"github.com/go-redis/redis/v8"
)

func NewRedis() (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_HOST") + ":" + os.Getenv("REDIS_PORT"),
		Username: os.Getenv("REDIS_USERNAME"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return c, nil
}
