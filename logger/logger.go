package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel 로그 심각도
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var (
	levelNames = map[LogLevel]string{
		DEBUG: "DEBUG",
		INFO:  "INFO",
		WARN:  "WARN",
		ERROR: "ERROR",
		FATAL: "FATAL",
	}

	levelColors = map[LogLevel]string{
		DEBUG: "\033[36m",
		INFO:  "\033[32m",
		WARN:  "\033[33m",
		ERROR: "\033[31m",
		FATAL: "\033[35m",
	}

	resetColor = "\033[0m"
)

// Logger 콘솔과 일자별 파일에 동시에 기록하는 로거
type Logger struct {
	level      LogLevel
	console    io.Writer
	files      []io.Writer
	mu         sync.Mutex
	useColor   bool
	prefix     string
	showCaller bool
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Config 로거 초기화 설정
type Config struct {
	Level      LogLevel
	LogDir     string
	FilePrefix string // 기본값 "fileshare"
	MaxSize    int64  // bytes
	MaxAge     int    // days
	UseColor   bool
	ShowCaller bool
	Prefix     string
}

// ParseLevel 환경변수 문자열을 LogLevel로 변환한다.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG, nil
	case "", "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "FATAL":
		return FATAL, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// Initialize 전역 로거를 한 번만 생성한다.
func Initialize(config Config) error {
	var err error
	once.Do(func() {
		l := &Logger{
			level:      config.Level,
			console:    os.Stdout,
			useColor:   config.UseColor,
			prefix:     config.Prefix,
			showCaller: config.ShowCaller,
		}

		if config.LogDir != "" {
			prefix := config.FilePrefix
			if prefix == "" {
				prefix = "fileshare"
			}
			if err = os.MkdirAll(config.LogDir, 0755); err != nil {
				return
			}

			logFile, fileErr := openLogFile(config.LogDir, prefix)
			if fileErr != nil {
				err = fileErr
				return
			}
			l.files = append(l.files, logFile)

			go rotateLogFiles(config.LogDir, prefix, config.MaxSize, config.MaxAge)
		}

		defaultLogger = l
	})

	return err
}

// SetOutput 콘솔 출력 대상을 교체한다. (테스트용)
func SetOutput(w io.Writer) {
	if defaultLogger == nil {
		defaultLogger = &Logger{level: INFO}
	}
	defaultLogger.mu.Lock()
	defaultLogger.console = w
	defaultLogger.useColor = false
	defaultLogger.mu.Unlock()
}

func openLogFile(logDir, prefix string) (*os.File, error) {
	name := fmt.Sprintf("%s-%s.log", prefix, time.Now().Format("2006-01-02"))
	return os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// rotateLogFiles 보관 기간이 지난 파일은 삭제하고, 크기 초과 파일은 아카이브한다.
func rotateLogFiles(logDir, prefix string, maxSize int64, maxAge int) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		files, _ := filepath.Glob(filepath.Join(logDir, prefix+"-*.log"))
		for _, file := range files {
			info, err := os.Stat(file)
			if err != nil {
				continue
			}

			if maxAge > 0 && time.Since(info.ModTime()) > time.Duration(maxAge)*24*time.Hour {
				os.Remove(file)
				continue
			}

			if maxSize > 0 && info.Size() > maxSize {
				archived := strings.TrimSuffix(file, ".log") + fmt.Sprintf("-%d.log", time.Now().Unix())
				os.Rename(file, archived)
			}
		}
	}
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	levelName := levelNames[level]
	message := fmt.Sprintf(format, args...)

	caller := ""
	if l.showCaller {
		if _, file, line, ok := runtime.Caller(3); ok {
			caller = fmt.Sprintf(" [%s:%d]", filepath.Base(file), line)
		}
	}

	plain := fmt.Sprintf("%s%s [%s]%s %s\n", timestamp, caller, levelName, l.prefix, message)

	if l.console != nil {
		if l.useColor {
			l.console.Write([]byte(fmt.Sprintf("%s%s [%s]%s %s%s%s\n",
				timestamp, caller, levelName, l.prefix, levelColors[level], message, resetColor)))
		} else {
			l.console.Write([]byte(plain))
		}
	}
	for _, w := range l.files {
		w.Write([]byte(plain))
	}

	if level == FATAL {
		os.Exit(1)
	}
}

func emit(level LogLevel, format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.log(level, format, args...)
		return
	}
	if level == FATAL {
		log.Fatalf("[FATAL] "+format, args...)
	}
	if level >= INFO {
		log.Printf("["+levelNames[level]+"] "+format, args...)
	}
}

func Debug(format string, args ...interface{}) { emit(DEBUG, format, args...) }

func Info(format string, args ...interface{}) { emit(INFO, format, args...) }

func Warn(format string, args ...interface{}) { emit(WARN, format, args...) }

func Error(format string, args ...interface{}) { emit(ERROR, format, args...) }

func Fatal(format string, args ...interface{}) { emit(FATAL, format, args...) }

// WithFields 구조화 필드를 붙인 로그 엔트리를 만든다.
func WithFields(fields map[string]interface{}) *LogEntry {
	return &LogEntry{fields: fields}
}

// LogEntry 구조화 로그 빌더
type LogEntry struct {
	fields map[string]interface{}
}

func (e *LogEntry) Debug(format string, args ...interface{}) { e.Log(DEBUG, format, args...) }

func (e *LogEntry) Info(format string, args ...interface{}) { e.Log(INFO, format, args...) }

func (e *LogEntry) Warn(format string, args ...interface{}) { e.Log(WARN, format, args...) }

func (e *LogEntry) Error(format string, args ...interface{}) { e.Log(ERROR, format, args...) }

// Log 명시적인 레벨로 기록한다.
func (e *LogEntry) Log(level LogLevel, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	if len(e.fields) > 0 {
		keys := make([]string, 0, len(e.fields))
		for k := range e.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.fields[k]))
		}
		message = fmt.Sprintf("%s | %s", message, strings.Join(parts, ", "))
	}

	emit(level, "%s", message)
}

// SetLevel 전역 로그 레벨 변경
func SetLevel(level LogLevel) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.level = level
		defaultLogger.mu.Unlock()
	}
}

// GetLevel 현재 전역 로그 레벨
func GetLevel() LogLevel {
	if defaultLogger != nil {
		return defaultLogger.level
	}
	return INFO
}
