package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath      string
	DatabaseURL string
	RawMailDir  string
	OutputDir   string
	ScratchDir  string

	HTTPAddr    string
	MaxUploadMB int

	LogLevel string
	LogDev   bool

	MenuMode             string
	MenuVocabularyPath   string
	MenuAlignMaxPasses   int
	MenuAlignSampleRows  int
	MenuHeaderScanRows   int
	MenuContextWindow    int
	MenuPadPrimaryShifts bool

	PublishURL          string
	PublishToken        string
	PublishRateLimitRPS int
	PublishTimeoutMs    int

	ArchiveS3Endpoint  string
	ArchiveS3Region    string
	ArchiveS3Bucket    string
	ArchiveS3AccessKey string
	ArchiveS3SecretKey string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string
	GmailQuery        string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailListenerProvider     string
	MailListenerLabel        string
	MailListenerIntervalSec  int
	MailListenerFetchMax     int
	MailListenerProcessBatch int
	MailListenerAutoExport   bool
	MailListenerAutoPublish  bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:      getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RawMailDir:  getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:   getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		ScratchDir:  getEnv("SCRATCH_DIR", os.TempDir()),

		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 100),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogDev:   getEnvBool("LOG_DEV", false),

		MenuMode:             getEnv("MENU_MODE", "page_marker"),
		MenuVocabularyPath:   getEnv("MENU_VOCABULARY_PATH", ""),
		MenuAlignMaxPasses:   getEnvInt("MENU_ALIGN_MAX_PASSES", 2),
		MenuAlignSampleRows:  getEnvInt("MENU_ALIGN_SAMPLE_ROWS", 6),
		MenuHeaderScanRows:   getEnvInt("MENU_HEADER_SCAN_ROWS", 3),
		MenuContextWindow:    getEnvInt("MENU_CONTEXT_WINDOW", 2),
		MenuPadPrimaryShifts: getEnvBool("MENU_PAD_PRIMARY_SHIFTS", true),

		PublishURL:          getEnv("PUBLISH_URL", ""),
		PublishToken:        getEnv("PUBLISH_TOKEN", ""),
		PublishRateLimitRPS: getEnvInt("PUBLISH_RATE_LIMIT_RPS", 5),
		PublishTimeoutMs:    getEnvInt("PUBLISH_TIMEOUT_MS", 30000),

		ArchiveS3Endpoint:  getEnv("ARCHIVE_S3_ENDPOINT", ""),
		ArchiveS3Region:    getEnv("ARCHIVE_S3_REGION", "auto"),
		ArchiveS3Bucket:    getEnv("ARCHIVE_S3_BUCKET", ""),
		ArchiveS3AccessKey: getEnv("ARCHIVE_S3_ACCESS_KEY", ""),
		ArchiveS3SecretKey: getEnv("ARCHIVE_S3_SECRET_KEY", ""),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailQuery:        getEnv("GMAIL_QUERY", "has:attachment (filename:pdf OR filename:xlsx) cardápio"),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailListenerProvider:     getEnv("MAIL_LISTENER_PROVIDER", "gmail"),
		MailListenerLabel:        getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec:  getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 30),
		MailListenerFetchMax:     getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
		MailListenerProcessBatch: getEnvInt("MAIL_LISTENER_PROCESS_BATCH", 20),
		MailListenerAutoExport:   getEnvBool("MAIL_LISTENER_AUTO_EXPORT", true),
		MailListenerAutoPublish:  getEnvBool("MAIL_LISTENER_AUTO_PUBLISH", false),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// ArchiveEnabled reports whether source documents should be copied to S3.
func (c Config) ArchiveEnabled() bool {
	return strings.TrimSpace(c.ArchiveS3Bucket) != ""
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
