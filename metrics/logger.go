package metrics

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type Logger interface {
	Log(info *ClipInfo)
	Close() error
}

type StdoutLogger struct{}

func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{}
}

func (l *StdoutLogger) Log(info *ClipInfo) {
	infoStr, err := info.ToJSON()
	if err == nil {
		log.Print(infoStr)
	} else {
		log.Printf("StdoutLogger: error: %v", err)
	}
}

func (l *StdoutLogger) Close() error { return nil }

const defaultQueueSize = 2000
const defaultLogWriters = 2
const defaultMaxLogFileSize = 64 * 1024 * 1024
const defaultMaxLogFiles = 10

// FileLogger appends JSON records to log<N> files under LogDir, one file
// per writer goroutine, rotating them once they reach MaxLogFileSize.
type FileLogger struct {
	MetricsQueue   chan *ClipInfo
	LogDir         string
	MaxLogFileSize int64
	MaxLogFiles    int
	Verbose        bool

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewFileLogger(logDir string, maxLogFileSize int64, maxLogFiles int, verbose bool) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create metrics directory: %v", err)
	}
	if maxLogFileSize <= 0 {
		maxLogFileSize = defaultMaxLogFileSize
	}
	if maxLogFiles <= 0 {
		maxLogFiles = defaultMaxLogFiles
	}
	logger := &FileLogger{
		MetricsQueue:   make(chan *ClipInfo, defaultQueueSize),
		LogDir:         logDir,
		MaxLogFileSize: maxLogFileSize,
		MaxLogFiles:    maxLogFiles,
		Verbose:        verbose,
	}

	for i := 0; i < defaultLogWriters; i++ {
		logger.wg.Add(1)
		go logger.startLogWriter(i)
	}

	return logger, nil
}

func (l *FileLogger) Log(info *ClipInfo) {
	l.MetricsQueue <- info
}

// Close flushes the queued records and stops the writers. Log must not
// be called after Close.
func (l *FileLogger) Close() error {
	l.closeOnce.Do(func() {
		close(l.MetricsQueue)
	})
	l.wg.Wait()
	return nil
}

func (l *FileLogger) startLogWriter(idx int) {
	defer l.wg.Done()

	f, err := l.openLogFile(idx)
	if err != nil {
		log.Printf("FileLogger%d: log open error: %v", idx, err)
	}
	defer func() {
		if f != nil {
			f.Close()
		}
	}()

	for info := range l.MetricsQueue {
		infoStr, err := info.ToJSON()
		if err != nil {
			log.Printf("FileLogger%d: info.ToJSON() error: %v", idx, err)
			continue
		}

		f, err = l.tryRotateLogFile(f, idx)
		if err != nil {
			continue
		}

		if _, err := f.WriteString(infoStr); err != nil {
			log.Printf("FileLogger%d: write error: %v", idx, err)
			continue
		}
		f.Sync()
	}
}

func (l *FileLogger) logFilePath(idx int) string {
	return path.Join(l.LogDir, fmt.Sprintf("log%d", idx))
}

func (l *FileLogger) openLogFile(idx int) (*os.File, error) {
	return os.OpenFile(l.logFilePath(idx), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func (l *FileLogger) tryRotateLogFile(currFile *os.File, idx int) (*os.File, error) {
	if currFile == nil {
		f, err := l.openLogFile(idx)
		if err != nil {
			log.Printf("FileLogger%d: log open error: %v", idx, err)
		}
		return f, err
	}

	info, err := currFile.Stat()
	if err != nil {
		log.Printf("FileLogger%d: log rotation error: %v", idx, err)
		return currFile, nil
	}
	if info.Size() < l.MaxLogFileSize {
		return currFile, nil
	}

	rotatedLogFilePath, err := l.rotationTarget(idx)
	if err != nil {
		log.Printf("FileLogger%d: log rotation error: %v", idx, err)
		return currFile, nil
	}

	currFile.Close()
	if err := os.Rename(l.logFilePath(idx), rotatedLogFilePath); err != nil {
		log.Printf("FileLogger%d: log rotation error: %v", idx, err)
	} else if l.Verbose {
		log.Printf("FileLogger%d: log file rotated: %v", idx, rotatedLogFilePath)
	}

	f, err := l.openLogFile(idx)
	if err != nil {
		log.Printf("FileLogger%d: log rotation error: %v", idx, err)
	}
	return f, err
}

// rotationTarget returns the first free log<idx>.<n> slot, or removes
// and reuses the oldest one once MaxLogFiles slots are taken.
func (l *FileLogger) rotationTarget(idx int) (string, error) {
	for i := 0; i < l.MaxLogFiles; i++ {
		filePath := path.Join(l.LogDir, fmt.Sprintf("log%d.%d", idx, i))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			return filePath, nil
		}
	}

	files, err := ioutil.ReadDir(l.LogDir)
	if err != nil {
		return "", err
	}

	var oldestFile os.FileInfo
	oldestTime := time.Now()
	for _, file := range files {
		if !file.Mode().IsRegular() {
			continue
		}

		fileName := filepath.Base(file.Name())
		fn := strings.TrimSuffix(fileName, path.Ext(fileName))
		if fn != fmt.Sprintf("log%d", idx) || fileName == fn {
			continue
		}

		if file.ModTime().Before(oldestTime) {
			oldestFile = file
			oldestTime = file.ModTime()
		}
	}

	rotatedLogFilePath := path.Join(l.LogDir, fmt.Sprintf("log%d.%d", idx, 0))
	if oldestFile != nil {
		rotatedLogFilePath = path.Join(l.LogDir, oldestFile.Name())
	}

	if l.Verbose {
		log.Printf("FileLogger%d: maximum number of log files reached, overwriting %s", idx, rotatedLogFilePath)
	}
	if err := os.Remove(rotatedLogFilePath); err != nil {
		return "", err
	}
	return rotatedLogFilePath, nil
}
