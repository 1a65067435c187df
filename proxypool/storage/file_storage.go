package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"freehp/internal/shared/logger"
)

// FileSink 实现了 spider.AddressSink，把地址逐行追加写入文件。
// 多个分组任务会并发调用 Receive，写入由互斥锁串行化。
type FileSink struct {
	filePath string
	mu       sync.Mutex
	w        *bufio.Writer
	closer   io.Closer
	written  int
}

// NewFileSink 打开（或创建）filePath 用于追加。"-" 表示标准输出。
func NewFileSink(filePath string) (*FileSink, error) {
	if filePath == "" || filePath == "-" {
		return NewWriterSink(os.Stdout), nil
	}
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return &FileSink{filePath: filePath, w: bufio.NewWriter(f), closer: f}, nil
}

// NewWriterSink writes addresses to w. Close does not close w.
func NewWriterSink(w io.Writer) *FileSink {
	return &FileSink{filePath: "-", w: bufio.NewWriter(w)}
}

// Receive 写入一批地址并立即刷新，保证每个页面的结果完整落盘。
func (fs *FileSink) Receive(addrs []string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for _, a := range addrs {
		if _, err := fs.w.WriteString(a); err != nil {
			return err
		}
		if err := fs.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := fs.w.Flush(); err != nil {
		return err
	}
	fs.written += len(addrs)

	l := logger.WithComponent("ProxyPool/Storage")
	l.Debug().Int("count", len(addrs)).Str("path", fs.filePath).Msg("Addresses written.")
	return nil
}

// Written reports how many addresses have been written so far.
func (fs *FileSink) Written() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.written
}

// Close flushes pending output and closes the underlying file.
func (fs *FileSink) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.w.Flush(); err != nil {
		return err
	}
	if fs.closer != nil {
		return fs.closer.Close()
	}
	return nil
}
