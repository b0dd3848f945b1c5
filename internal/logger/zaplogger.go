package logger

import (
	"os"
	"time"

	"github.com/MrPunder/codeform/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type zapLogger struct {
	logZap *zap.SugaredLogger
	logger *zap.Logger // Сохраняем ссылку на оригинальный логгер для вызова Sync()
}

// NewZapLogger создает логгер с ротацией файлов; ошибки дублируются в отдельный файл
func NewZapLogger(conf config.LogConfig) (*zapLogger, error) {
	logLevel, err := zap.ParseAtomicLevel(conf.Level)
	if err != nil {
		return nil, err
	}
	encoder := newEncoder()

	// Настройка ротации логов для обычных логов
	stdLogWriter := &lumberjack.Logger{
		Filename:   conf.Path,
		MaxSize:    conf.MaxSize,    // Максимальный размер в МБ
		MaxBackups: conf.MaxBackups, // Максимальное количество файлов бэкапа
		MaxAge:     conf.MaxAge,     // Максимальный возраст в днях
		Compress:   conf.Compress,   // Сжимать ротированные файлы
	}

	// Настройка ротации логов для ошибок
	errLogWriter := &lumberjack.Logger{
		Filename:   conf.ErrorPath,
		MaxSize:    conf.MaxSize,
		MaxBackups: conf.MaxBackups,
		MaxAge:     conf.MaxAge,
		Compress:   conf.Compress,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(stdLogWriter), logLevel),
		zapcore.NewCore(encoder, zapcore.AddSync(errLogWriter), zap.ErrorLevel),
	}
	if conf.Console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), logLevel))
	}

	return build(zapcore.NewTee(cores...)), nil
}

// NewConsoleLogger пишет только в stderr; используется утилитами командной строки
func NewConsoleLogger(level string) (*zapLogger, error) {
	logLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stderr), logLevel)
	return build(core), nil
}

func newEncoder() zapcore.Encoder {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func build(core zapcore.Core) *zapLogger {
	logger := zap.New(core, zap.Development(), zap.AddCaller(), zap.AddCallerSkip(1))
	return &zapLogger{
		logZap: logger.Sugar(),
		logger: logger,
	}
}

// RequestLog makes request log
func (logger *zapLogger) RequestLog(method string, path string) {
	logger.logZap.Infow("incoming request",
		"method", method,
		"path", path,
	)
}

// Info logs message at info level
func (logger *zapLogger) Info(mes string) {
	logger.logZap.Info(mes)
}

func (logger *zapLogger) Infof(str string, arg ...any) {
	logger.logZap.Infof(str, arg...)
}

func (logger *zapLogger) Warnf(str string, arg ...any) {
	logger.logZap.Warnf(str, arg...)
}

func (logger *zapLogger) Errorf(str string, arg ...any) {
	logger.logZap.Errorf(str, arg...)
}

// Error logs message at error level
func (logger *zapLogger) Error(mes string) {
	logger.logZap.Error(mes)
}

// Debug logs message at debug level
func (logger *zapLogger) Debug(mes string) {
	logger.logZap.Debug(mes)
}

// Debugf logs formatted message at debug level
func (logger *zapLogger) Debugf(str string, arg ...any) {
	logger.logZap.Debugf(str, arg...)
}

// ResponseLog makes response log
func (logger *zapLogger) ResponseLog(status int, size int, duration time.Duration) {
	logger.logZap.Infow("Send response with",
		"status", status,
		"size", size,
		"time", duration.String(),
	)
}

// Close закрывает логгер, сбрасывая все буферизованные логи
func (logger *zapLogger) Close() error {
	return logger.logger.Sync()
}
