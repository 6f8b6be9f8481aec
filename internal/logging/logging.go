package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the run logger: a console sink with colored level names, and an
// optional file sink that records everything at debug level when logFile is
// set. The console stays at info unless verbose is requested.
func New(verbose bool, logFile string) (*zap.Logger, error) {
	consoleLevel := zapcore.InfoLevel
	if verbose {
		consoleLevel = zapcore.DebugLevel
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleCfg.TimeKey = "" // console output is for humans, the file keeps timestamps
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), consoleLevel),
	}

	if logFile != "" {
		// Each run starts a fresh debug log.
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, err
		}
		fileCfg := zap.NewProductionEncoderConfig()
		cores = append(cores,
			zapcore.NewCore(zapcore.NewConsoleEncoder(fileCfg), zapcore.Lock(f), zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
