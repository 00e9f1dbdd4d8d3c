package logger

import (
	"os"
	"path/filepath"
	"strings"
	"yolonode/internal/config"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file names, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (debug/info/warning/error) to rotating files and stdout/stderr.
type Logger struct {
	sugar  *zap.SugaredLogger
	logDir string
	files  map[string]*lumberjack.Logger
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(cfg *config.Config) (*Logger, error) {
	return newLogger(cfg, os.Stdout)
}

// NewStderrLogger is like NewLogger but keeps stdout free for program
// output: every console entry goes to stderr.
func NewStderrLogger(cfg *config.Config) (*Logger, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg *config.Config, console *os.File) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create log directory")
	}

	minLevel, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		logDir: cfg.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}
	l.sugar = zap.New(l.setupCores(minLevel, console), zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
	return l, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), files: map[string]*lumberjack.Logger{}}
}

// setupCores builds a console core and one file core per level.
// Debug entries share the info file.
func (l *Logger) setupCores(minLevel zapcore.Level, console *os.File) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	fileEncoder := zapcore.NewConsoleEncoder(encCfg)

	consoleCfg := encCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(consoleCfg)

	atLeast := func(lvl zapcore.Level) bool { return lvl >= minLevel }
	only := func(levels ...zapcore.Level) zap.LevelEnablerFunc {
		return func(lvl zapcore.Level) bool {
			if !atLeast(lvl) {
				return false
			}
			for _, want := range levels {
				if lvl == want {
					return true
				}
			}
			return false
		}
	}

	return zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, zapcore.Lock(console), only(zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel)),
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.ErrorLevel
		})),
		zapcore.NewCore(fileEncoder, l.openLogFile(InfoFile), only(zapcore.DebugLevel, zapcore.InfoLevel)),
		zapcore.NewCore(fileEncoder, l.openLogFile(WarningFile), only(zapcore.WarnLevel)),
		zapcore.NewCore(fileEncoder, l.openLogFile(ErrorFile), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.ErrorLevel
		})),
	)
}

// openLogFile returns a rotating writer for a log file.
func (l *Logger) openLogFile(filename string) zapcore.WriteSyncer {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, filename),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	l.files[filename] = file
	return zapcore.AddSync(file)
}

// Debug writes a formatted debug-level log entry.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Dir returns the directory holding the log files.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs starts the specified log file over. The previous content is
// kept as a rotated backup.
func (l *Logger) CleanLogs(fileName string) error {
	file, ok := l.files[fileName]
	if !ok {
		return errors.Errorf("unknown log file %s", fileName)
	}
	if err := file.Rotate(); err != nil {
		return errors.Wrapf(err, "failed to rotate %s", fileName)
	}

	l.Info("File content has been cleared: %s", fileName)
	return nil
}

// Close flushes buffered entries and closes the log files.
func (l *Logger) Close() error {
	_ = l.sugar.Sync()
	var err error
	for _, file := range l.files {
		err = multierr.Append(err, file.Close())
	}
	return err
}

// parseLevel accepts zap's level names plus "warning", the name the log
// files and methods use.
func parseLevel(name string) (zapcore.Level, error) {
	if strings.EqualFold(strings.TrimSpace(name), "warning") {
		name = "warn"
	}
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return level, errors.Wrapf(err, "invalid log level %q", name)
	}
	return level, nil
}
