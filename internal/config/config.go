package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	DatabaseURL string

	JWTSecret     string
	JWTExpiration time.Duration

	SendgridAPIKey    string
	SendgridFromEmail string
	SendgridFromName  string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	UploadsDir    string
	UploadBaseURL string

	// Cron spec for the pending-request expiry sweep.
	ExpirySweepSpec string
	RequestTTL      time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	requestTTLHours, _ := strconv.Atoi(getEnv("REQUEST_TTL_HOURS", "24"))

	return &Config{
		ServerPort:  getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiration: time.Duration(jwtExpHours) * time.Hour,

		SendgridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendgridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendgridFromName:  getEnv("SENDGRID_FROM_NAME", "ParkWise"),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),

		UploadsDir:    getEnv("UPLOADS_DIR", "uploads/qrcodes"),
		UploadBaseURL: getEnv("UPLOAD_BASE_URL", "/uploads/qrcodes"),

		ExpirySweepSpec: getEnv("EXPIRY_SWEEP_SPEC", "@every 10m"),
		RequestTTL:      time.Duration(requestTTLHours) * time.Hour,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
