package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	mainLogger  *zerolog.Logger
	errorLogger *zerolog.Logger
	mainFile    *os.File
	errorFile   *os.File
	mu          sync.Mutex
}

var (
	globalMu     sync.Mutex
	globalLogger *Logger
	cleanupOnce  sync.Once
)

// InitDailyLog — файлы dir/DD-MM-YYYY.log и dir/errors-DD-MM-YYYY.log.
// При повторном вызове (ротация) предыдущие файлы закрываются.
// console дублирует записи в stdout (режим разработки).
func InitDailyLog(dir string, console bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	dateStr := time.Now().Format("02-01-2006")
	mainPath := filepath.Join(dir, dateStr+".log")
	errorPath := filepath.Join(dir, "errors-"+dateStr+".log")

	mainFile, err := os.OpenFile(mainPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("ошибка открытия основного лог-файла: %w", err)
	}
	errorFile, err := os.OpenFile(errorPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		_ = mainFile.Close()
		return fmt.Errorf("ошибка открытия файла ошибок: %w", err)
	}

	var mainOut, errOut io.Writer = mainFile, errorFile
	if console {
		cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
		mainOut = zerolog.MultiLevelWriter(mainFile, cw)
		errOut = zerolog.MultiLevelWriter(errorFile, cw)
	}

	mainLogger := zerolog.New(mainOut).With().Timestamp().Logger()
	errorLogger := zerolog.New(errOut).With().Timestamp().Logger()

	next := &Logger{
		mainLogger:  &mainLogger,
		errorLogger: &errorLogger,
		mainFile:    mainFile,
		errorFile:   errorFile,
	}

	globalMu.Lock()
	prev := globalLogger
	globalLogger = next
	globalMu.Unlock()
	prev.close()

	cleanupOnce.Do(func() { go cleanupOldLogs(dir, 7) })
	return nil
}

func current() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalLogger
}

func LogInfo(msg string, fields map[string]interface{}) {
	l := current()
	if l == nil {
		return // логгер не инициализирован (тесты) или закрыт
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	event := l.mainLogger.Info()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func LogError(msg string, fields map[string]interface{}) {
	l := current()
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	event := l.errorLogger.Error()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// AccessLogger — логгер для журнала запросов в режиме разработки (аналог morgan dev)
func AccessLogger(out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()
}

func cleanupOldLogs(dir string, days int) {
	files, err := os.ReadDir(dir)
	if err != nil {
		LogError("Не удалось прочитать директорию логов", map[string]interface{}{"dir": dir, "error": err.Error()})
		return
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(dir, file.Name())
			if err := os.Remove(path); err != nil {
				LogError("Удаление старого лога", map[string]interface{}{"path": path, "error": err.Error()})
			}
		}
	}
}

func (l *Logger) close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	consoleLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if err := l.mainFile.Close(); err != nil {
		consoleLogger.Error().Msgf("Закрытие mainFile: %v", err)
	}
	if err := l.errorFile.Close(); err != nil {
		consoleLogger.Error().Msgf("Закрытие errorFile: %v", err)
	}
}

// Close закрывает файлы логов; дальнейшие LogInfo/LogError игнорируются
func Close() {
	globalMu.Lock()
	l := globalLogger
	globalLogger = nil
	globalMu.Unlock()
	l.close()
}
