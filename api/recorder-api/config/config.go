package config

import (
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Application config structure
type AppConfig struct {
	Name        string `mapstructure:"service_name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Host        string `mapstructure:"host" validate:"required"`
	Port        int    `mapstructure:"port" validate:"required"`
	LogLevel    string `mapstructure:"log_level" validate:"required"`
	LogPath     string `mapstructure:"log_path"`
	AuthToken   string `mapstructure:"auth_token"`

	Storage     StorageConfig     `mapstructure:"storage" validate:"required"`
	Recording   RecordingConfig   `mapstructure:"recording" validate:"required"`
	Transcriber TranscriberConfig `mapstructure:"transcriber" validate:"required"`
	Sync        SyncConfig        `mapstructure:"sync"`
}

type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type RecordingConfig struct {
	Encrypt           bool          `mapstructure:"encrypt"`
	LiveTranscription bool          `mapstructure:"live_transcription"`
	KeyringService    string        `mapstructure:"keyring_service" validate:"required"`
	Retention         time.Duration `mapstructure:"retention" validate:"required"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval" validate:"required"`
}

type TranscriberConfig struct {
	Provider string         `mapstructure:"provider" validate:"required,oneof=deepgram google"`
	Language string         `mapstructure:"language" validate:"required"`
	Deepgram DeepgramConfig `mapstructure:"deepgram"`
	Google   GoogleConfig   `mapstructure:"google"`
}

type DeepgramConfig struct {
	ApiKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	Endpointing string `mapstructure:"endpointing"`
}

type GoogleConfig struct {
	ProjectId         string `mapstructure:"project_id"`
	Region            string `mapstructure:"region"`
	Model             string `mapstructure:"model"`
	ApiKey            string `mapstructure:"api_key"`
	ServiceAccountKey string `mapstructure:"service_account_key"`
}

type SyncConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Url          string        `mapstructure:"url"`
	ApiKey       string        `mapstructure:"api_key"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"`
	NoteTemplate string        `mapstructure:"note_template"`
}

// reading config and initializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil {
		log.Printf("no config file found, reading from env variables")
	}
	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	// keeping watch on https://github.com/spf13/viper/issues/188

	v.SetDefault("SERVICE_NAME", "rapida-recorder")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("HOST", "127.0.0.1")
	v.SetDefault("PORT", 9091)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", ".")
	v.SetDefault("AUTH_TOKEN", "")

	v.SetDefault("STORAGE__PATH", "./recordings")

	v.SetDefault("RECORDING__ENCRYPT", true)
	v.SetDefault("RECORDING__LIVE_TRANSCRIPTION", false)
	v.SetDefault("RECORDING__KEYRING_SERVICE", "rapida-recorder")
	v.SetDefault("RECORDING__RETENTION", "720h")
	v.SetDefault("RECORDING__SWEEP_INTERVAL", "1h")

	v.SetDefault("TRANSCRIBER__PROVIDER", "deepgram")
	v.SetDefault("TRANSCRIBER__LANGUAGE", "en-US")
	v.SetDefault("TRANSCRIBER__DEEPGRAM__API_KEY", "")
	v.SetDefault("TRANSCRIBER__DEEPGRAM__MODEL", "nova-2")
	v.SetDefault("TRANSCRIBER__DEEPGRAM__ENDPOINTING", "300")
	v.SetDefault("TRANSCRIBER__GOOGLE__PROJECT_ID", "")
	v.SetDefault("TRANSCRIBER__GOOGLE__REGION", "global")
	v.SetDefault("TRANSCRIBER__GOOGLE__MODEL", "latest_long")

	v.SetDefault("SYNC__ENABLED", false)
	v.SetDefault("SYNC__URL", "")
	v.SetDefault("SYNC__API_KEY", "")
	v.SetDefault("SYNC__RETRY_DELAY", "2s")
	v.SetDefault("SYNC__NOTE_TEMPLATE", "")
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// validating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
