package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	NotifyBestEffort = "best_effort"
	NotifyStrict     = "strict"

	OTPResendReplace = "replace"
	OTPResendReject  = "reject"

	// ResetPasswordAny accepts any non-empty password on reset consumption;
	// ResetPasswordStrong applies the registration strength rules.
	ResetPasswordAny    = "any"
	ResetPasswordStrong = "strong"
)

type Config struct {
	Port                     string
	DatabaseURL              string
	JWTSecret                string
	ResetTokenSecret         string
	AllowOrigins             []string
	LogLevel                 string
	LogstashTCPAddr          string
	SessionTTL               time.Duration
	OTPTTL                   time.Duration
	ResetTokenTTL            time.Duration
	FrontendBaseURL          string
	NotifyFailurePolicy      string
	OTPResendPolicy          string
	ResetPasswordPolicy      string
	RedisAddr                string
	RedisPassword            string
	OTPMaxAttempts           int
	OTPAttemptWindow         time.Duration
	OTPIssueCooldown         time.Duration
	SMTPHost                 string
	SMTPPort                 string
	SMTPUsername             string
	SMTPPassword             string
	SMTPFrom                 string
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinIOBucketProfile       string
	MinIOPublicURL           string
	ProfileImageMaxBytes     int64
	ProfileImageMaxDimension int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	jwtSecret := must("JWT_SECRET")

	return Config{
		Port:                     getenv("PORT", "8080"),
		DatabaseURL:              must("DATABASE_URL"),
		JWTSecret:                jwtSecret,
		ResetTokenSecret:         getenv("RESET_TOKEN_SECRET", jwtSecret),
		AllowOrigins:             splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogLevel:                 getenv("LOG_LEVEL", "info"),
		LogstashTCPAddr:          getenv("LOGSTASH_TCP_ADDR", ""),
		SessionTTL:               durationEnv("SESSION_TTL", 24*time.Hour),
		OTPTTL:                   durationEnv("OTP_TTL", 5*time.Minute),
		ResetTokenTTL:            durationEnv("RESET_TOKEN_TTL", 10*time.Minute),
		FrontendBaseURL:          strings.TrimRight(getenv("FRONTEND_BASE_URL", "http://localhost:3000"), "/"),
		NotifyFailurePolicy:      oneOf("NOTIFY_FAILURE_POLICY", NotifyBestEffort, NotifyStrict),
		OTPResendPolicy:          oneOf("OTP_RESEND_POLICY", OTPResendReplace, OTPResendReject),
		ResetPasswordPolicy:      oneOf("RESET_PASSWORD_POLICY", ResetPasswordAny, ResetPasswordStrong),
		RedisAddr:                getenv("REDIS_ADDR", ""),
		RedisPassword:            getenv("REDIS_PASSWORD", ""),
		OTPMaxAttempts:           intEnv("OTP_MAX_ATTEMPTS", 5),
		OTPAttemptWindow:         durationEnv("OTP_ATTEMPT_WINDOW", 15*time.Minute),
		OTPIssueCooldown:         durationEnv("OTP_ISSUE_COOLDOWN", 30*time.Second),
		SMTPHost:                 getenv("SMTP_HOST", ""),
		SMTPPort:                 getenv("SMTP_PORT", ""),
		SMTPUsername:             getenv("SMTP_USERNAME", ""),
		SMTPPassword:             getenv("SMTP_PASSWORD", ""),
		SMTPFrom:                 getenv("SMTP_FROM", ""),
		MinIOEndpoint:            getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketProfile:       getenv("MINIO_BUCKET_PROFILE", "account-profiles"),
		MinIOPublicURL:           getenv("MINIO_PUBLIC_URL", ""),
		ProfileImageMaxBytes:     int64(intEnv("PROFILE_IMAGE_MAX_BYTES", 5*1024*1024)),
		ProfileImageMaxDimension: intEnv("PROFILE_IMAGE_MAX_DIMENSION", 2048),
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func durationEnv(k string, d time.Duration) time.Duration {
	if v, err := time.ParseDuration(getenv(k, "")); err == nil && v > 0 {
		return v
	}
	return d
}

func intEnv(k string, d int) int {
	if v, err := strconv.Atoi(getenv(k, "")); err == nil && v > 0 {
		return v
	}
	return d
}

// oneOf returns the env value when it is one of allowed, else the first allowed value.
func oneOf(k string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(getenv(k, "")))
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	return allowed[0]
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
