package config

import "os"

type Config struct {
	Port          string
	Env           string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string
	CORSOrigin    string
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "tikgram"),
		JWTSecret:     getEnv("JWT_SECRET", "supersecretjwtkey"),
		CORSOrigin:    getEnv("CORS_ORIGIN", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
