package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// Credentials never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database
	DBDriver      string // mysql, postgres, sqlite or mongo
	DatabaseURI   string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	MongoDatabase string
	// HTTP surface
	AllowedOrigins []string
	BaseURL        string
	// Uploads
	StorageBackend string // local or minio
	UploadDir      string
	UploadMaxMB    int
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	// SMTP for confirmation mails
	MailEnabled   bool
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFrom      string
	SMTPFromName  string
	SMTPTLS       bool
	MailSubject   string
	NotifyWorkers int
	NotifyQueue   int
	// Redis list cache
	CacheEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration once during boot and exits when it is invalid.
func Load() AppConfig {
	if loaded {
		return cfg
	}
	c, err := Parse(filepath.Join("config", "config.json"))
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Parse builds a configuration with the precedence
// environment variables (.env included) -> config json -> defaults, then validates it.
func Parse(jsonPath string) (AppConfig, error) {
	// .env only fills variables that are not already exported
	_ = godotenv.Load()

	var c AppConfig
	if err := loadJSONConfig(jsonPath, &c); err != nil {
		return c, fmt.Errorf("read %s: %w", jsonPath, err)
	}
	// Defaults depend on the final driver and come last
	if err := applyEnvOverrides(&c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	if err := Validate(c); err != nil {
		return c, err
	}
	return c, nil
}

// Validate reports missing values that the service cannot start without.
func Validate(c AppConfig) error {
	var errs []error
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
		if c.DBDriver == "sqlite" && c.DatabaseURI == "" {
			errs = append(errs, errors.New("DATABASE_URI must point to the sqlite file"))
		}
		if c.DBDriver != "sqlite" && c.DatabaseURI == "" && c.DBHost == "" {
			errs = append(errs, errors.New("DATABASE_URI or DB_HOST must be set"))
		}
		if isMongoURI(c.DatabaseURI) {
			errs = append(errs, fmt.Errorf("DATABASE_URI is a mongodb URI but DB_DRIVER is %q", c.DBDriver))
		}
	case "mongo":
		if c.DatabaseURI == "" {
			errs = append(errs, errors.New("DATABASE_URI must be set for mongo"))
		}
		if c.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGO_DATABASE must be set for mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}

	switch c.StorageBackend {
	case "local":
		if c.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR must be set"))
		}
	case "minio":
		if c.S3Endpoint == "" || c.S3AccessKey == "" || c.S3SecretKey == "" || c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY and S3_BUCKET must be set for minio storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend))
	}

	if c.MailEnabled {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			errs = append(errs, errors.New("SMTP_HOST, SMTP_USERNAME and SMTP_PASSWORD must be set when MAIL_ENABLED"))
		}
	}
	if c.UploadMaxMB <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_MB must be positive"))
	}
	return errors.Join(errs...)
}

func isMongoURI(uri string) bool {
	return strings.HasPrefix(uri, "mongodb://") || strings.HasPrefix(uri, "mongodb+srv://")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads grouped JSON sections into out if the file is present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if f, ok := m[key].(float64); ok {
			return int(f)
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.BaseURL = getString(app, "BaseURL")
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		out.GinMode = getString(g, "Mode")
		out.GinPath = getString(g, "LogPath")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DBDriver = getString(dbs, "Driver")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
		out.MongoDatabase = getString(dbs, "MongoDatabase")
	}

	if up, ok := raw["uploads"].(map[string]any); ok {
		out.StorageBackend = getString(up, "Backend")
		out.UploadDir = getString(up, "Dir")
		out.UploadMaxMB = getInt(up, "MaxMB")
		out.S3Endpoint = getString(up, "S3Endpoint")
		out.S3AccessKey = getString(up, "S3AccessKey")
		out.S3SecretKey = getString(up, "S3SecretKey")
		out.S3Bucket = getString(up, "S3Bucket")
	}

	if sm, ok := raw["smtp"].(map[string]any); ok {
		out.MailEnabled = getBool(sm, "Enabled")
		out.SMTPHost = getString(sm, "SMTPHost")
		out.SMTPPort = getInt(sm, "SMTPPort")
		out.SMTPUsername = getString(sm, "SMTPUsername")
		out.SMTPPassword = getString(sm, "SMTPPassword")
		out.SMTPFrom = getString(sm, "SMTPFrom")
		out.SMTPFromName = getString(sm, "SMTPFromName")
		out.SMTPTLS = getBool(sm, "SMTPTLS")
		out.MailSubject = getString(sm, "Subject")
		out.NotifyWorkers = getInt(sm, "Workers")
		out.NotifyQueue = getInt(sm, "Queue")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.CacheEnabled = getBool(rds, "Enabled")
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "5000"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
		if isMongoURI(c.DatabaseURI) {
			c.DBDriver = "mongo"
		}
	}
	if c.DBPort == "" {
		switch c.DBDriver {
		case "postgres":
			c.DBPort = "5432"
		default:
			c.DBPort = "3306"
		}
	}
	if c.DBUser == "" {
		switch c.DBDriver {
		case "postgres":
			c.DBUser = "postgres"
		default:
			c.DBUser = "root"
		}
	}
	if c.DBName == "" {
		c.DBName = "contactbox"
	}
	if c.DBDriver == "mongo" && c.MongoDatabase == "" {
		c.MongoDatabase = c.DBName
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.StorageBackend == "" {
		c.StorageBackend = "local"
	}
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.UploadMaxMB == 0 {
		c.UploadMaxMB = 50
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.MailSubject == "" {
		c.MailSubject = "Thank you for contacting us"
	}
	if c.NotifyWorkers == 0 {
		c.NotifyWorkers = 2
	}
	if c.NotifyQueue == 0 {
		c.NotifyQueue = 100
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	var errs []error
	setInt := func(key string, dst *int) {
		if v := getEnv(key, ""); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid integer value %s=%s: %w", key, v, err))
				return
			}
			*dst = i
		}
	}
	setString := func(key string, dst *string) {
		if v := getEnv(key, ""); v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v := getEnv(key, ""); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	setString("APP_PORT", &c.AppPort)
	setString("PORT", &c.AppPort)
	setString("GIN_MODE", &c.GinMode)
	setString("GIN_PATH", &c.GinPath)

	setString("DB_DRIVER", &c.DBDriver)
	setString("DATABASE_URI", &c.DatabaseURI)
	if v := getEnv("MONGO_URI", ""); v != "" {
		c.DatabaseURI = v
		if getEnv("DB_DRIVER", "") == "" {
			c.DBDriver = "mongo"
		}
	}
	setString("DB_HOST", &c.DBHost)
	setString("DB_PORT", &c.DBPort)
	setString("DB_USER", &c.DBUser)
	setString("DB_PASSWORD", &c.DBPassword)
	setString("DB_NAME", &c.DBName)
	setString("MONGO_DATABASE", &c.MongoDatabase)

	if v := getEnv("CLIENT_URL", ""); v != "" {
		c.AllowedOrigins = []string{strings.TrimSpace(v)}
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	setString("BASE_URL", &c.BaseURL)
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	setString("STORAGE_BACKEND", &c.StorageBackend)
	setString("UPLOAD_DIR", &c.UploadDir)
	setInt("UPLOAD_MAX_MB", &c.UploadMaxMB)
	setString("S3_ENDPOINT", &c.S3Endpoint)
	setString("S3_ACCESS_KEY", &c.S3AccessKey)
	setString("S3_SECRET_KEY", &c.S3SecretKey)
	setString("S3_BUCKET", &c.S3Bucket)

	setBool("MAIL_ENABLED", &c.MailEnabled)
	setString("SMTP_HOST", &c.SMTPHost)
	setInt("SMTP_PORT", &c.SMTPPort)
	setString("SMTP_USERNAME", &c.SMTPUsername)
	setString("SMTP_PASSWORD", &c.SMTPPassword)
	setString("SMTP_FROM", &c.SMTPFrom)
	setString("SMTP_FROM_NAME", &c.SMTPFromName)
	setBool("SMTP_TLS", &c.SMTPTLS)
	setString("MAIL_SUBJECT", &c.MailSubject)
	setInt("NOTIFY_WORKERS", &c.NotifyWorkers)
	setInt("NOTIFY_QUEUE", &c.NotifyQueue)
	if c.SMTPFrom == "" {
		c.SMTPFrom = c.SMTPUsername
	}

	setBool("CACHE_ENABLED", &c.CacheEnabled)
	setString("REDIS_HOST", &c.RedisHost)
	setInt("REDIS_PORT", &c.RedisPort)
	setInt("REDIS_DB", &c.RedisDB)
	setString("REDIS_PASSWORD", &c.RedisPassword)

	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_PATH", &c.LogPath)
	setInt("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	setInt("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	setInt("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	setBool("LOG_COMPRESS", &c.LogCompress)

	return errors.Join(errs...)
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
