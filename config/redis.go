package config

import (
	redis_service "Magnate/services/redis"
	"log"
	"os"
)

// Connect to Redis
func Connect_redis() (*redis_service.RedisClient, error) {
	redisUri := os.Getenv("REDIS_URL")
	redisClient, err := redis_service.InitRedis(redisUri, 0)
	if err != nil {
		log.Printf("Error connecting to Redis: %v", err)
		return nil, err
	}
	log.Println("Redis connection established")
	return redisClient, nil
}
