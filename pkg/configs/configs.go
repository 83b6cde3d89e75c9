package configs

// PostgresConfig holds the relational store connection settings.
type PostgresConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required"`
	DbName             string `mapstructure:"db_name" validate:"required"`
	User               string `mapstructure:"auth__user" validate:"required"`
	Password           string `mapstructure:"auth__password" validate:"required"`
	SslMode            string `mapstructure:"ssl_mode"`
	MaxOpenConnection  int    `mapstructure:"max_open_connection"`
	MaxIdealConnection int    `mapstructure:"max_ideal_connection"`
}
