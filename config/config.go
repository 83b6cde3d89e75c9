package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/interviaai/pkg/configs"
)

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Secret   string `mapstructure:"secret" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogPath  string `mapstructure:"log_path" validate:"required"`

	PostgresConfig configs.PostgresConfig `mapstructure:"postgres" validate:"required"`

	// all the host which is required
	QuestionHost string `mapstructure:"question_host" validate:"required"`
	AnalysisHost string `mapstructure:"analysis_host" validate:"required"`

	// interview session knobs
	InterviewConfig InterviewConfig `mapstructure:"interview" validate:"required"`
}

// InterviewConfig carries the session timing defaults. Question count is a
// deployment value, not a constant; four is what the product ships with today.
type InterviewConfig struct {
	QuestionCount      int `mapstructure:"question_count" validate:"required,min=1"`
	AnswerSeconds      int `mapstructure:"answer_seconds" validate:"required,min=5"`
	PrepSeconds        int `mapstructure:"prep_seconds" validate:"required,min=1"`
	ChunkSliceSeconds  int `mapstructure:"chunk_slice_seconds" validate:"required,min=1"`
	UploadDwellSeconds int `mapstructure:"upload_dwell_seconds" validate:"required,min=1"`
}

// reading config and intializing configs for application
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
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env varaibles.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	// keeping watch on https://github.com/spf13/viper/issues/188

	v.SetDefault("SERVICE_NAME", "interview-api")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "logs")

	// all external collaborator hosts
	v.SetDefault("QUESTION_HOST", "")
	v.SetDefault("ANALYSIS_HOST", "")

	v.SetDefault("POSTGRES__HOST", "localhost")
	v.SetDefault("POSTGRES__PORT", 5432)
	v.SetDefault("POSTGRES__DB_NAME", "<>")
	v.SetDefault("POSTGRES__AUTH__USER", "<>")
	v.SetDefault("POSTGRES__AUTH__PASSWORD", "<>")
	v.SetDefault("POSTGRES__MAX_OPEN_CONNECTION", 10)
	v.SetDefault("POSTGRES__MAX_IDEAL_CONNECTION", 10)
	v.SetDefault("POSTGRES__SSL_MODE", "disable")

	v.SetDefault("INTERVIEW__QUESTION_COUNT", 4)
	v.SetDefault("INTERVIEW__ANSWER_SECONDS", 30)
	v.SetDefault("INTERVIEW__PREP_SECONDS", 5)
	v.SetDefault("INTERVIEW__CHUNK_SLICE_SECONDS", 10)
	v.SetDefault("INTERVIEW__UPLOAD_DWELL_SECONDS", 3)
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
