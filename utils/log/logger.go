/*
   Copyright @ 2021 bocloud <fushaosong@beyondcent.com>.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package log

import (
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// maxSize 单个文件大小,MB
	maxSize = 100
	// maxBackups 保存的文件个数
	maxBackups = 2
)

var sugareLogger *zap.SugaredLogger

func init() {
	level := zap.InfoLevel
	if os.Getenv("DEBUG") != "" {
		level = zap.DebugLevel
	}
	sugareLogger = newLogger(zapcore.AddSync(os.Stdout), level)
}

// Setup re-targets the logger at stdout plus a rotating file at logPath.
// An empty logPath keeps stdout only.
func Setup(logPath string, debug bool) {
	level := zap.InfoLevel
	if debug || os.Getenv("DEBUG") != "" {
		level = zap.DebugLevel
	}

	var syncer zapcore.WriteSyncer = zapcore.AddSync(os.Stdout)
	if logPath != "" {
		hook := lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    maxSize, // megabytes
			MaxBackups: maxBackups,
			Compress:   false,
		}
		syncer = zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout), zapcore.AddSync(&hook))
	}
	sugareLogger = newLogger(syncer, level)
}

func newLogger(syncer zapcore.WriteSyncer, level zapcore.Level) *zap.SugaredLogger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "line",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), syncer, level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// ReplaceCore routes the package logger to core and returns a function
// restoring the previous logger. Meant for tests observing log output.
func ReplaceCore(core zapcore.Core) func() {
	prev := sugareLogger
	sugareLogger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
	return func() { sugareLogger = prev }
}

// Sync flushes buffered entries, call before exit.
func Sync() {
	_ = sugareLogger.Sync()
}

func Debug(args ...interface{}) {
	sugareLogger.Debug(args...)
}

func Debugf(template string, args ...interface{}) {
	sugareLogger.Debugf(template, args...)
}

func Info(args ...interface{}) {
	sugareLogger.Info(args...)
}

func Infof(template string, args ...interface{}) {
	sugareLogger.Infof(template, args...)
}

func Warn(args ...interface{}) {
	sugareLogger.Warn(args...)
}

func Warnf(template string, args ...interface{}) {
	sugareLogger.Warnf(template, args...)
}

func Error(args ...interface{}) {
	sugareLogger.Error(args...)
}

func Errorf(template string, args ...interface{}) {
	sugareLogger.Errorf(template, args...)
}

func Fatal(args ...interface{}) {
	sugareLogger.Fatal(args...)
}

func Fatalf(template string, args ...interface{}) {
	sugareLogger.Fatalf(template, args...)
}
