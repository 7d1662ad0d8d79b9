package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

// globalWriter is an io.Writer that delegates to an underlying writer,
// which can be swapped at runtime in a thread-safe manner.
type globalWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

// Write implements the io.Writer interface.
func (gw *globalWriter) Write(p []byte) (n int, err error) {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	return gw.w.Write(p)
}

// Set changes the underlying writer.
func (gw *globalWriter) Set(w io.Writer) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	gw.w = w
}

// attached receives a copy of every logger's output. It discards until
// AttachFile is called.
var attached = &globalWriter{w: io.Discard}

// AttachFile appends all log output, from existing and future loggers, to
// the file at path. Closing the returned closer detaches and closes it.
func AttachFile(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	attached.Set(file)
	return &attachment{file: file}, nil
}

type attachment struct {
	once sync.Once
	file *os.File
}

func (a *attachment) Close() error {
	var err error
	a.once.Do(func() {
		attached.Set(io.Discard)
		err = a.file.Close()
	})
	return err
}
