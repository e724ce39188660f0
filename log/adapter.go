package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Disabled zerolog.Logger

	DefaultLevel   = zerolog.InfoLevel
	DefaultLogFile = "geoconsole.log"
)

func init() {
	Disabled = zerolog.Nop()
}

// Configuration for logging
type Config struct {
	// AppName is added to every record.
	AppName string `json:"app_name" yaml:"app_name"`
	// Level is a string representation of the `zerolog.Level`.
	Level string `json:"level" yaml:"level"`
	// Disable console logging
	DisableConsoleLog bool `json:"disable_console_log" yaml:"disable_console_log"`
	// LogsAsJson makes the log framework log JSON
	LogsAsJson bool `json:"logs_as_json" yaml:"logs_as_json"`
	// FileLoggingEnabled makes the framework log to a file
	// the fields below can be skipped if this value is false!
	FileLoggingEnabled bool `json:"file_logging_enabled" yaml:"file_logging_enabled"`
	// Directory to log to to when filelogging is enabled
	Directory string `json:"directory" yaml:"directory"`
	// Filename is the name of the logfile which will be placed inside the directory
	Filename string `json:"filename" yaml:"filename"`
	// MaxSize the max size in MB of the logfile before it's rolled
	MaxSize int `json:"max_size" yaml:"max_size"`
	// MaxBackups the max number of rolled files to keep
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	// MaxAge the max age in days to keep a logfile
	MaxAge int `json:"max_age" yaml:"max_age"`
}

func (Config) Default() Config {
	return Config{
		AppName:            "geoconsole",
		Level:              DefaultLevel.String(),
		DisableConsoleLog:  false,
		LogsAsJson:         false,
		FileLoggingEnabled: false,
		Directory:          "",
		Filename:           DefaultLogFile,
		MaxSize:            150,
		MaxBackups:         3,
		MaxAge:             28,
	}
}

func (cfg Config) Validate() error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.AppName, validation.Required),
		validation.Field(&cfg.Level, validation.Required, validation.By(validLevel)),
	)
}

func validLevel(value interface{}) error {
	level, _ := value.(string)
	_, err := zerolog.ParseLevel(level)
	return err
}

func New(config Config) zerolog.Logger {
	logLevel, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		logLevel = DefaultLevel
	}

	var writers []io.Writer
	if !config.DisableConsoleLog {
		if config.LogsAsJson {
			writers = append(writers, os.Stderr)
		} else {
			out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}
			out.TimeFormat = time.RFC3339
			out.FormatLevel = func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
			}
			out.FormatMessage = func(i interface{}) string {
				return fmt.Sprintf("%-6s  |>", i)
			}
			writers = append(writers, out)
		}
	}
	if config.FileLoggingEnabled {
		if file := newRollingFile(config); file != nil {
			writers = append(writers, file)
		}
	}
	if len(writers) == 0 {
		return Disabled
	}

	appName := config.AppName
	if appName == "" {
		appName = "geoconsole"
	}

	logger := zerolog.New(io.MultiWriter(writers...)).
		Level(logLevel).
		With().
		Str("app", appName).
		Timestamp().
		Logger()

	logger.Trace().
		Bool("fileLogging", config.FileLoggingEnabled).
		Bool("jsonLogOutput", config.LogsAsJson).
		Str("logDirectory", config.Directory).
		Str("fileName", config.Filename).
		Int("maxSizeMB", config.MaxSize).
		Int("maxBackups", config.MaxBackups).
		Int("maxAgeInDays", config.MaxAge).
		Msg("logging configured")

	return logger
}

func newRollingFile(config Config) io.Writer {
	if err := os.MkdirAll(config.Directory, 0744); err != nil {
		log.Error().Err(err).Str("path", config.Directory).Msg("can't create log directory")
		return nil
	}

	filename := config.Filename
	if filename == "" {
		filename = DefaultLogFile
	}

	return &lumberjack.Logger{
		Filename:   path.Join(config.Directory, filename),
		MaxBackups: config.MaxBackups, // files
		MaxSize:    config.MaxSize,    // megabytes
		MaxAge:     config.MaxAge,     // days
	}
}
