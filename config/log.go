package config

type Log struct {
	// debug / info / warn / error，預設 info
	Level string `mapstructure:"LEVEL" json:"level" yaml:"level"`
}
