package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/priyam-gsc/gscbt/pkg/util"
)

func newLogger(logFile string, level zapcore.Level) (*zap.Logger, error) {
	if logFile == "-" {
		return util.NewLogger(level)
	}
	return util.NewLoggerWithFile(logFile, level)
}
