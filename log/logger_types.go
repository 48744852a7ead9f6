package log

import (
	"sync"

	"go.uber.org/zap"
)

const (
	// DefaultLevels enables every level for a sub logger
	DefaultLevels = "INFO|DEBUG|WARN|ERROR"
	// DefaultFileName is the log file name used when file output is enabled
	DefaultFileName = "twap.log"

	encodingConsole = "console"
	encodingJSON    = "json"
	timestampFormat = "02/01/2006 15:04:05"
)

var (
	// read/write mutex for logger
	mu = &sync.RWMutex{}

	globalLogConfig = &Config{}

	// LogPath system path to store log files in
	LogPath string

	// base is the root zap logger all sub loggers are derived from
	base = zap.NewNop()
)

// Config holds configuration settings loaded from the terminal config
type Config struct {
	Enabled         *bool             `json:"enabled" mapstructure:"enabled"`
	SubLoggerConfig `mapstructure:",squash"`
	Encoding        string            `json:"encoding" mapstructure:"encoding"`
	FileName        string            `json:"fileName,omitempty" mapstructure:"filename"`
	SubLoggers      []SubLoggerConfig `json:"subloggers,omitempty" mapstructure:"subloggers"`
}

// SubLoggerConfig holds sub logger configuration settings loaded from config
type SubLoggerConfig struct {
	Name   string `json:"name,omitempty" mapstructure:"name"`
	Level  string `json:"level" mapstructure:"level"`
	Output string `json:"output" mapstructure:"output"`
}

// Levels flags for each sub logger type
type Levels struct {
	Info, Debug, Warn, Error bool
}
