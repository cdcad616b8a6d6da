package utils

import (
	"fmt"
	"form_guard/internal/dataType"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogxManager struct {
	basePath string
	loggers  map[string]*zap.Logger
	mu       sync.RWMutex
}

var (
	defaultManager   *LogxManager
	defaultManagerMu sync.RWMutex
)

func NewManager(base string) *LogxManager {
	m := &LogxManager{basePath: base, loggers: make(map[string]*zap.Logger)}

	if err := os.MkdirAll(m.basePath, 0744); err != nil {
		log.Printf("failed to create base log dir %s: %v", m.basePath, err)
	}
	return m
}

// InitLogx installs the manager used by the package level Log* helpers.
func InitLogx(base string) *LogxManager {
	m := NewManager(base)
	defaultManagerMu.Lock()
	defaultManager = m
	defaultManagerMu.Unlock()
	return m
}

func (m *LogxManager) getLogger(host string) *zap.Logger {
	if host == "" {
		host = "_default"
	}
	m.mu.RLock()
	if lg, ok := m.loggers[host]; ok {
		m.mu.RUnlock()
		return lg
	}
	m.mu.RUnlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if lg, ok := m.loggers[host]; ok {
		return lg
	}
	dir := filepath.Join(m.basePath, filepath.Base(host))
	if err := os.MkdirAll(dir, 0744); err != nil {
		log.Printf("failed to create log dir %s: %v", dir, err)
	}

	encCfg := zapcore.EncoderConfig{MessageKey: "msg", LineEnding: zapcore.DefaultLineEnding}
	encoder := zapcore.NewConsoleEncoder(encCfg)

	infoOut := zapcore.AddSync(m.openLogFile(filepath.Join(dir, "info.log")))
	errorOut := zapcore.AddSync(m.openLogFile(filepath.Join(dir, "error.log")))
	dbgOut := zapcore.AddSync(m.openLogFile(filepath.Join(dir, "debug.log")))

	infoLv := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l == zapcore.InfoLevel })
	errLv := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel })
	dbgLv := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l == zapcore.DebugLevel })

	tee := zapcore.NewTee(
		zapcore.NewCore(encoder, infoOut, infoLv),
		zapcore.NewCore(encoder, errorOut, errLv),
		zapcore.NewCore(encoder, dbgOut, dbgLv),
	)
	lg := zap.New(tee)
	m.loggers[host] = lg
	return lg
}

func (m *LogxManager) openLogFile(path string) *os.File {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file %s: %v", path, err)
		return os.Stdout
	}
	return f
}

func formatLine(reqData dataType.UserRequest, msg, msg2 string) string {
	return fmt.Sprintf("%s - - [%s] %s %s %s %s %s %s",
		reqData.RemoteIP,
		time.Now().Format("02/Jan/2006:15:04:05 -0700"),
		msg,
		reqData.Host,
		reqData.Uri,
		SummarizeUserAgent(reqData.UserAgent),
		reqData.RequestID,
		msg2,
	)
}

func (m *LogxManager) LogInfo(reqData dataType.UserRequest, msg, msg2 string) {
	m.getLogger(reqData.Host).Info(formatLine(reqData, msg, msg2))
}

func (m *LogxManager) LogError(reqData dataType.UserRequest, msg, msg2 string) {
	m.getLogger(reqData.Host).Error(formatLine(reqData, msg, msg2))
}

func (m *LogxManager) LogDebug(reqData dataType.UserRequest, msg, msg2 string) {
	m.getLogger(reqData.Host).Debug(formatLine(reqData, msg, msg2))
}

func manager() *LogxManager {
	defaultManagerMu.RLock()
	defer defaultManagerMu.RUnlock()
	return defaultManager
}

// LogInfo writes through the default manager; a no-op before InitLogx.
func LogInfo(reqData dataType.UserRequest, msg, msg2 string) {
	if m := manager(); m != nil {
		m.LogInfo(reqData, msg, msg2)
	}
}

func LogError(reqData dataType.UserRequest, msg, msg2 string) {
	if m := manager(); m != nil {
		m.LogError(reqData, msg, msg2)
	}
}

func LogDebug(reqData dataType.UserRequest, msg, msg2 string) {
	if m := manager(); m != nil {
		m.LogDebug(reqData, msg, msg2)
	}
}

// NewAppLogger returns the process logger used outside of request handling.
func NewAppLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	lg, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return lg
}
