package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	GoogleClientID       string
	GoogleClientSecret   string
	GoogleRedirectURI    string
	MastodonClientID     string
	MastodonClientSecret string
	MastodonRedirectURI  string
	ThreadsClientID      string
	ThreadsClientSecret  string
	ThreadsRedirectURI   string
	BlueskyPDSURL        string
	PostgresURI          string
	RedisURI             string
	FrontendURL          string
	R2                   R2
	SecretKey            string
	CookieName           string
}

func LoadConfig() *Config {
	return &Config{
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:    getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3000/login/callback"),
		MastodonClientID:     getEnv("MASTODON_CLIENT_ID", ""),
		MastodonClientSecret: getEnv("MASTODON_CLIENT_SECRET", ""),
		MastodonRedirectURI:  getEnv("MASTODON_REDIRECT_URI", ""),
		ThreadsClientID:      getEnv("THREADS_CLIENT_ID", ""),
		ThreadsClientSecret:  getEnv("THREADS_CLIENT_SECRET", ""),
		ThreadsRedirectURI:   getEnv("THREADS_REDIRECT_URI", ""),
		BlueskyPDSURL:        getEnv("BLUESKY_PDS_URL", "https://bsky.social"),
		PostgresURI:          getEnv("POSTGRES_URI", ""),
		RedisURI:             getEnv("REDIS_URI", ""),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
