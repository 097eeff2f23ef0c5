package takkencrawler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/logging"
)

// Logger writes to the terminal and to storage/logs/<name>/<date>_application.log.
type Logger struct {
	logger  *log.Logger
	file    *os.File
	htmlDir string
	cloud   *logging.Logger
	client  *logging.Client
}

// NewLogger opens the application log for name under dir (storage/logs by default).
func NewLogger(name, dir string) (*Logger, error) {
	if dir == "" {
		dir = filepath.Join("storage", "logs")
	}
	currentDate := time.Now().Format("2006-01-02")
	directory := filepath.Join(dir, name)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFilePath := filepath.Join(directory, currentDate+"_application.log")
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := newLogger(io.MultiWriter(file, os.Stdout), filepath.Join(directory, "html"))
	l.file = file
	return l, nil
}

func newLogger(w io.Writer, htmlDir string) *Logger {
	return &Logger{
		logger:  log.New(w, "⏱️ ", log.LstdFlags),
		htmlDir: htmlDir,
	}
}

// AttachCloudLogging mirrors every entry to Google Cloud Logging.
func (l *Logger) AttachCloudLogging(ctx context.Context, cfg SinkConfig, logName string) error {
	projectID, err := resolveProjectID(cfg)
	if err != nil {
		return err
	}
	client, err := logging.NewClient(ctx, projectID, clientOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create logging client: %w", err)
	}
	l.client = client
	l.cloud = client.Logger(logName)
	return nil
}

func (l *Logger) mirror(severity logging.Severity, msg string) {
	if l.cloud != nil {
		l.cloud.Log(logging.Entry{Severity: severity, Payload: msg})
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.logger.Printf("📢 INFO: "+format, args...)
	l.mirror(logging.Info, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.logger.Printf("🔍 DEBUG: "+format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.logger.Printf("⚠️ WARN: "+format, args...)
	l.mirror(logging.Warning, fmt.Sprintf(format, args...))
}

func (l *Logger) Summary(format string, args ...interface{}) {
	l.logger.Printf("📝 SUMMARY: "+format, args...)
	l.mirror(logging.Notice, fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.logger.Printf("🛑 ERROR: "+format, args...)
	l.mirror(logging.Error, fmt.Sprintf(format, args...))
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.mirror(logging.Critical, fmt.Sprintf(format, args...))
	_ = l.Close()
	l.logger.Fatalf("🚨 FATAL: "+format, args...)
}

// Html logs msg and keeps the page content next to the log for later inspection.
func (l *Logger) Html(html, url, msg string) {
	l.Error("%s", msg)
	if err := writePageContentToFile(l.htmlDir, html, url, msg); err != nil {
		l.logger.Printf("⚛️ HTML: %v", err)
	}
}

func (l *Logger) Close() error {
	var err error
	if l.client != nil {
		err = l.client.Close()
		l.client, l.cloud = nil, nil
	}
	if l.file != nil {
		if cerr := l.file.Close(); err == nil {
			err = cerr
		}
		l.file = nil
	}
	return err
}
