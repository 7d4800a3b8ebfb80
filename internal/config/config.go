package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Google    GoogleConfig    `mapstructure:"google"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	Mailbox   MailboxConfig   `mapstructure:"mailbox"`
	Mail      MailConfig      `mapstructure:"mail"`
	Drive     DriveConfig     `mapstructure:"drive"`
	Receipts  ReceiptsConfig  `mapstructure:"receipts"`
	History   HistoryConfig   `mapstructure:"history"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GoogleConfig holds the credential material for the Google APIs.
// The OAuth handshake itself happens outside this program; we only need
// the resulting credentials file.
type GoogleConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

// SheetsConfig identifies the two spreadsheets the pipeline reads and writes
type SheetsConfig struct {
	RosterID string `mapstructure:"roster_id"`
	LedgerID string `mapstructure:"ledger_id"`
}

// MailboxConfig holds the Gmail label wiring for the unattended variant
type MailboxConfig struct {
	Query         string `mapstructure:"query"`
	ToSendLabelID string `mapstructure:"to_send_label_id"`
	SentLabelID   string `mapstructure:"sent_label_id"`
}

// MailConfig holds outgoing mail configuration
type MailConfig struct {
	From          string `mapstructure:"from"`
	OperatorAddr  string `mapstructure:"operator_addr"`
	AttachReceipt bool   `mapstructure:"attach_receipt"`
}

// DriveConfig holds the Drive archive layout
type DriveConfig struct {
	RootFolder     string `mapstructure:"root_folder"`
	CatchAllFolder string `mapstructure:"catch_all_folder"`
}

// ReceiptsConfig holds receipt discovery and download settings
type ReceiptsConfig struct {
	URLPrefix string `mapstructure:"url_prefix"`
	WorkDir   string `mapstructure:"work_dir"`
	ExportDir string `mapstructure:"export_dir"`
}

// HistoryConfig holds the local run-history database settings
type HistoryConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig holds the unattended run schedule
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Pick up a local .env before viper reads the environment
	if _, err := os.Stat(".env"); err == nil {
		if err := gotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("google.credentials_file", "credentials.json")

	viper.SetDefault("mailbox.query", "label:for_automation/to_send")

	viper.SetDefault("mail.attach_receipt", true)

	viper.SetDefault("drive.root_folder", "receipts")
	viper.SetDefault("drive.catch_all_folder", "NOT_SENT")

	viper.SetDefault("receipts.url_prefix", "https://mrng.to/")
	viper.SetDefault("receipts.work_dir", "tmp_pdfs")
	viper.SetDefault("receipts.export_dir", "exports")

	viper.SetDefault("history.path", "data/runs.db")
	viper.SetDefault("history.max_open_conns", 5)
	viper.SetDefault("history.max_idle_conns", 2)
	viper.SetDefault("history.conn_max_lifetime", time.Hour)

	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("scheduler.schedule", "0 7 * * *")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "console")
}

// bindEnvVars binds environment variable overrides
func bindEnvVars() {
	viper.BindEnv("google.credentials_file", "GOOGLE_CREDENTIALS_FILE")
	viper.BindEnv("sheets.roster_id", "ROSTER_SHEET_ID")
	viper.BindEnv("sheets.ledger_id", "LEDGER_SHEET_ID")
	viper.BindEnv("mail.from", "MAIL_FROM")
	viper.BindEnv("mail.operator_addr", "MAIL_OPERATOR_ADDR")
	viper.BindEnv("mailbox.to_send_label_id", "MAILBOX_TO_SEND_LABEL_ID")
	viper.BindEnv("mailbox.sent_label_id", "MAILBOX_SENT_LABEL_ID")
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.Sheets.RosterID == "" {
		return fmt.Errorf("sheets.roster_id is required")
	}
	if c.Sheets.LedgerID == "" {
		return fmt.Errorf("sheets.ledger_id is required")
	}
	if c.Mail.From == "" {
		return fmt.Errorf("mail.from is required")
	}
	if c.Mail.OperatorAddr == "" {
		return fmt.Errorf("mail.operator_addr is required")
	}
	if c.Receipts.URLPrefix == "" {
		return fmt.Errorf("receipts.url_prefix is required")
	}
	if c.Drive.RootFolder == "" {
		return fmt.Errorf("drive.root_folder is required")
	}
	return nil
}
