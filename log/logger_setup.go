package log

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	errSubloggerConfigIsNil  = errors.New("sublogger config is nil")
	errUnhandledOutputWriter = errors.New("unhandled output writer")
	errSubLoggerNotFound     = errors.New("sub logger not found")
	errUnhandledEncoding     = errors.New("unhandled log encoding")
)

func getWriters(s *SubLoggerConfig, fileName string) (zapcore.WriteSyncer, error) {
	if s == nil {
		return nil, errSubloggerConfigIsNil
	}
	outputWriters := strings.Split(s.Output, "|")
	writers := make([]zapcore.WriteSyncer, 0, len(outputWriters))
	for x := range outputWriters {
		switch strings.ToLower(outputWriters[x]) {
		case "stdout", "console":
			writers = append(writers, zapcore.Lock(os.Stdout))
		case "stderr":
			writers = append(writers, zapcore.Lock(os.Stderr))
		case "file":
			if fileName == "" {
				fileName = DefaultFileName
			}
			f, err := os.OpenFile(filepath.Join(LogPath, fileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
			if err != nil {
				return nil, err
			}
			writers = append(writers, zapcore.Lock(f))
		default:
			return nil, fmt.Errorf("%w: %s", errUnhandledOutputWriter, outputWriters[x])
		}
	}
	return zapcore.NewMultiWriteSyncer(writers...), nil
}

func newEncoder(encoding string) (zapcore.Encoder, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timestampFormat)
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	switch strings.ToLower(encoding) {
	case "", encodingConsole:
		return zapcore.NewConsoleEncoder(encCfg), nil
	case encodingJSON:
		return zapcore.NewJSONEncoder(encCfg), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnhandledEncoding, encoding)
	}
}

func newCore(s *SubLoggerConfig, cfg *Config) (zapcore.Core, error) {
	ws, err := getWriters(s, cfg.FileName)
	if err != nil {
		return nil, err
	}
	enc, err := newEncoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	// Level filtering is owned by the sub logger so the core accepts everything.
	return zapcore.NewCore(enc, ws, zapcore.DebugLevel), nil
}

// GenDefaultSettings return struct with known sane/working logger settings
func GenDefaultSettings() Config {
	enabled := true
	return Config{
		Enabled: &enabled,
		SubLoggerConfig: SubLoggerConfig{
			Level:  DefaultLevels,
			Output: "console",
		},
		Encoding: encodingConsole,
		FileName: DefaultFileName,
	}
}

// SetupGlobalLogger configures every registered sub logger with the global
// settings then applies any sub logger specific overrides
func SetupGlobalLogger(cfg *Config) error {
	if cfg == nil {
		return errSubloggerConfigIsNil
	}
	core, err := newCore(&cfg.SubLoggerConfig, cfg)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	globalLogConfig = cfg
	base = zap.New(core)
	enabled := cfg.Enabled == nil || *cfg.Enabled
	for name, sl := range subLoggers {
		sl.logger = base.Named(name).Sugar()
		if enabled {
			sl.levels = splitLevel(cfg.Level)
		} else {
			sl.levels = Levels{}
		}
	}
	if !enabled {
		return nil
	}
	for x := range cfg.SubLoggers {
		if err := configureSubLogger(&cfg.SubLoggers[x], cfg); err != nil {
			return err
		}
	}
	return nil
}

func configureSubLogger(s *SubLoggerConfig, cfg *Config) error {
	name := strings.ToUpper(s.Name)
	sl, ok := subLoggers[name]
	if !ok {
		return fmt.Errorf("%w: %v", errSubLoggerNotFound, s.Name)
	}
	if s.Output != "" {
		core, err := newCore(s, cfg)
		if err != nil {
			return err
		}
		sl.logger = zap.New(core).Named(name).Sugar()
	}
	if s.Level != "" {
		sl.levels = splitLevel(s.Level)
	}
	return nil
}

func splitLevel(level string) (l Levels) {
	enabledLevels := strings.Split(level, "|")
	for x := range enabledLevels {
		switch strings.ToUpper(enabledLevels[x]) {
		case "DEBUG":
			l.Debug = true
		case "INFO":
			l.Info = true
		case "WARN":
			l.Warn = true
		case "ERROR":
			l.Error = true
		}
	}
	return
}

func registerNewSubLogger(subLogger string) *SubLogger {
	temp := &SubLogger{
		name:   strings.ToUpper(subLogger),
		levels: splitLevel(DefaultLevels),
	}
	subLoggers[temp.name] = temp
	return temp
}

// register all loggers at package init()
func init() {
	Global = registerNewSubLogger("LOG")
	ConfigMgr = registerNewSubLogger("CONFIG")
	DatabaseMgr = registerNewSubLogger("DATABASE")
	TWAP = registerNewSubLogger("TWAP")
	Portfolio = registerNewSubLogger("PORTFOLIO")
	ExchangeSys = registerNewSubLogger("EXCHANGE")
	RESTSys = registerNewSubLogger("REST")

	defaults := GenDefaultSettings()
	if err := SetupGlobalLogger(&defaults); err != nil {
		fmt.Fprintf(os.Stderr, "logger default setup failed: %v\n", err)
	}
}
