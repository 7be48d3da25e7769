package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/sungwon/mail-relay/internal/validator"
)

// Environment variable names.
const (
	KeySenderEmail       = "GOOGLE_SENDER_EMAIL"
	KeySenderPassword    = "GOOGLE_SENDER_PASSWORD"
	KeySMTPServer        = "SMTP_SERVER"
	KeySMTPPort          = "SMTP_PORT"
	KeySupabaseURL       = "SUPABASE_URL"
	KeySupabaseSecretKey = "SUPABASE_SECRET_KEY"
	KeyMongoURI          = "MONGO_URI"
	KeyMongoDBUser       = "MONGO_DB_USER"
	KeyMongoDBPassword   = "MONGO_DB_PASSWORD"
	KeyMongoDBCode       = "MONGO_DB_CODE"
	KeyMongoDBName       = "MONGO_DB_NAME"
	KeyServerPort        = "SERVER_PORT"
	KeyDatabaseType      = "DATABASE_TYPE"
	KeyEmailSender       = "EMAIL_SENDER"
	KeyIsProd            = "IS_PROD"

	KeyLogLevel     = "LOG_LEVEL"
	KeyLogFormat    = "LOG_FORMAT"
	KeyLogOutput    = "LOG_OUTPUT"
	KeyLogFilePath  = "LOG_FILE_PATH"
	KeyLogMaxSizeMB = "LOG_MAX_SIZE_MB"
	KeyLogMaxFiles  = "LOG_MAX_FILES"
)

// Database backends accepted by DATABASE_TYPE.
const (
	DatabaseMongo    = "mongodb"
	DatabaseSupabase = "supabase"
)

// Config holds all application configuration. It is built once by Load and
// never mutated afterwards. The json tags double as field names in
// validation issues and in the development configuration dump.
type Config struct {
	// SMTP
	SenderEmail    string `json:"GOOGLE_SENDER_EMAIL" validate:"required,email"`
	SenderPassword string `json:"GOOGLE_SENDER_PASSWORD" validate:"required"`
	SMTPServer     string `json:"SMTP_SERVER" validate:"required"`
	SMTPPort       int    `json:"SMTP_PORT" validate:"gt=0"`

	// Supabase
	SupabaseURL       string `json:"SUPABASE_URL" validate:"required,url"`
	SupabaseSecretKey string `json:"SUPABASE_SECRET_KEY" validate:"required"`

	// MongoDB
	MongoURI        string `json:"MONGO_URI" validate:"required,url"`
	MongoDBUser     string `json:"MONGO_DB_USER" validate:"required"`
	MongoDBPassword string `json:"MONGO_DB_PASSWORD" validate:"required"`
	MongoDBCode     string `json:"MONGO_DB_CODE,omitempty"`
	MongoDBName     string `json:"MONGO_DB_NAME" validate:"required"`

	// Admin controls
	ServerPort   int    `json:"SERVER_PORT" validate:"gt=0"`
	DatabaseType string `json:"DATABASE_TYPE" validate:"oneof=mongodb supabase"`
	EmailSender  string `json:"EMAIL_SENDER" validate:"required"`
	IsProd       bool   `json:"IS_PROD"`

	Logging LoggingConfig `json:"LOGGING"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `json:"LOG_LEVEL"`
	Format    string `json:"LOG_FORMAT" validate:"oneof=json console"`
	Output    string `json:"LOG_OUTPUT" validate:"oneof=stdout file"`
	FilePath  string `json:"LOG_FILE_PATH"`
	MaxSizeMB int    `json:"LOG_MAX_SIZE_MB" validate:"gte=0"`
	MaxFiles  int    `json:"LOG_MAX_FILES" validate:"gte=0"`
}

// Load reads configuration from the process environment. When envFile names
// an existing dotenv file its values are used as a fallback for variables
// that are not set in the environment.
//
// A validation failure is returned as validator.Issues with one entry per
// failing variable.
func Load(envFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyLogOutput, "stdout")
	v.SetDefault(KeyLogFilePath, "logs/mail-relay.log")
	v.SetDefault(KeyLogMaxSizeMB, 100)
	v.SetDefault(KeyLogMaxFiles, 5)

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read env file: %w", err)
			}
		}
	}

	v.AutomaticEnv()

	cfg := &Config{
		SenderEmail:       v.GetString(KeySenderEmail),
		SenderPassword:    v.GetString(KeySenderPassword),
		SMTPServer:        v.GetString(KeySMTPServer),
		SMTPPort:          parsePort(v.GetString(KeySMTPPort)),
		SupabaseURL:       v.GetString(KeySupabaseURL),
		SupabaseSecretKey: v.GetString(KeySupabaseSecretKey),
		MongoURI:          v.GetString(KeyMongoURI),
		MongoDBUser:       v.GetString(KeyMongoDBUser),
		MongoDBPassword:   v.GetString(KeyMongoDBPassword),
		MongoDBCode:       v.GetString(KeyMongoDBCode),
		MongoDBName:       v.GetString(KeyMongoDBName),
		ServerPort:        parsePort(v.GetString(KeyServerPort)),
		DatabaseType:      v.GetString(KeyDatabaseType),
		EmailSender:       v.GetString(KeyEmailSender),
		IsProd:            strings.EqualFold(v.GetString(KeyIsProd), "true"),
		Logging: LoggingConfig{
			Level:     v.GetString(KeyLogLevel),
			Format:    v.GetString(KeyLogFormat),
			Output:    v.GetString(KeyLogOutput),
			FilePath:  v.GetString(KeyLogFilePath),
			MaxSizeMB: v.GetInt(KeyLogMaxSizeMB),
			MaxFiles:  v.GetInt(KeyLogMaxFiles),
		},
	}

	val, err := validator.New()
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}
	if err := val.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parsePort converts text to an integer port. Unparsable text yields 0,
// which the gt=0 rule rejects.
func parsePort(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// Report writes a human-readable diagnostic for a Load failure: one line per
// failing field, or a single line for any other error.
func Report(w io.Writer, err error) {
	issues, ok := validator.AsIssues(err)
	if !ok {
		fmt.Fprintf(w, "unexpected error while loading environment variables: %v\n", err)
		return
	}

	fmt.Fprintln(w, "environment variable validation failed:")
	for _, issue := range issues {
		field := "unknown"
		if len(issue.Path) > 0 {
			field = strings.Join(issue.Path, ".")
		}
		fmt.Fprintf(w, "- field: %s | message: %s\n", field, issue.Message)
	}
}
