package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

type Config struct {
	// Accepted values: debug, info, warning, error. Anything else -> INFO.
	Level string `json:"level" yaml:"level" envconfig:"VDBFUZZ_LOG_LEVEL"`
}
