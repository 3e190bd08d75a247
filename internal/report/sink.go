// Package report implements the attachment sink and run summary output.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// FileSink writes attachments into a timestamped run directory:
// text attachments append to steps.log, binary attachments get numbered
// files. All attachments from one run land in the same directory.
type FileSink struct {
	mu      sync.Mutex
	baseDir string
	runDir  string
	counter int
	logger  arbor.ILogger
}

// NewFileSink creates a sink rooted at baseDir. The run directory is
// created lazily on the first attachment.
func NewFileSink(baseDir string, logger arbor.ILogger) *FileSink {
	return &FileSink{baseDir: baseDir, logger: logger}
}

// Attach implements interfaces.AttachmentSink.
func (s *FileSink) Attach(data []byte, mimeType string, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.ensureRunDir()
	if err != nil {
		return err
	}

	if mimeType == "text/plain" {
		f, err := os.OpenFile(filepath.Join(dir, "steps.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open step log: %w", err)
		}
		defer f.Close()
		line := fmt.Sprintf("%s [%s] %s\n", time.Now().Format("15:04:05.000"), label, string(data))
		if _, err := f.WriteString(line); err != nil {
			return fmt.Errorf("failed to append step log: %w", err)
		}
		return nil
	}

	s.counter++
	name := fmt.Sprintf("%02d_%s%s", s.counter, sanitizeLabel(label), extensionFor(mimeType))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write attachment %s: %w", name, err)
	}
	s.logger.Debug().Str("file", name).Msg("Attachment saved")
	return nil
}

// RunDir returns the run directory, creating it if needed.
func (s *FileSink) RunDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureRunDir()
}

func (s *FileSink) ensureRunDir() (string, error) {
	if s.runDir != "" {
		return s.runDir, nil
	}
	timestamp := time.Now().Format("run-2006-01-02-15-04-05")
	dir := filepath.Join(s.baseDir, timestamp)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory %s: %w", dir, err)
	}
	s.runDir = dir
	return dir, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "application/pdf":
		return ".pdf"
	case "application/json":
		return ".json"
	default:
		return ".bin"
	}
}

func sanitizeLabel(label string) string {
	out := make([]rune, 0, len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
