// Package bridge exposes remote resources on a computer through local
// stand-ins: a file proxy backed by a local cache and a shell proxy over the
// backend's shell channel.
package bridge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"agentenv/pkg/backend"
	"agentenv/pkg/logx"
)

// SyncError reports a failed transfer between the local cache and the remote
// file. The proxy stays usable after a SyncError; pending writes are kept
// until a later sync succeeds.
type SyncError struct {
	Path string
	Op   string // "pull" or "push"
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// validModes are the accepted open modes. Read-create modes pull the remote
// content into the cache first; write-truncate modes start empty.
var validModes = map[string]bool{
	"r": true, "w": true, "a": true,
	"r+": true, "w+": true, "a+": true,
}

// RemoteFile is a local proxy for a file on a computer. Reads and writes go
// to a cached copy; Flush pushes dirty content back to the remote side.
type RemoteFile struct {
	computer backend.Computer
	path     string
	mode     string

	cachePath string
	file      *os.File
	dirty     bool
	closed    bool

	logger *logx.Logger
}

// OpenFile opens path on the computer through a local cache. For modes that
// read or append, the remote content is pulled first; a pull failure is fatal
// for read-only mode and ignored otherwise (the file may not exist yet).
func OpenFile(ctx context.Context, computer backend.Computer, path, mode string) (*RemoteFile, error) {
	if !validModes[mode] {
		return nil, fmt.Errorf("invalid file mode %q", mode)
	}

	cacheDir := filepath.Join(os.TempDir(), "agentenv-files")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	cachePath := filepath.Join(cacheDir, uuid.NewString()+"-"+filepath.Base(path))

	f := &RemoteFile{
		computer:  computer,
		path:      path,
		mode:      mode,
		cachePath: cachePath,
		logger:    logx.NewLogger("bridge"),
	}

	if f.readsRemote() {
		if err := computer.CopyFrom(ctx, path, cachePath); err != nil {
			if mode == "r" {
				return nil, &SyncError{Path: path, Op: "pull", Err: err}
			}
			f.logger.Debug("pull %s skipped: %v", path, err)
		}
	}

	file, err := os.OpenFile(cachePath, osFlags(mode), 0o644)
	if err != nil {
		return nil, fmt.Errorf("open cache file: %w", err)
	}
	f.file = file
	return f, nil
}

// readsRemote reports whether the open mode needs the remote content up
// front. Truncating modes ("w", "w+") never do.
func (f *RemoteFile) readsRemote() bool {
	return f.mode != "w" && f.mode != "w+"
}

func (f *RemoteFile) writable() bool { return f.mode != "r" }

func osFlags(mode string) int {
	switch mode {
	case "r":
		return os.O_RDONLY
	case "r+":
		return os.O_RDWR
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "w+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case "a+":
		return os.O_RDWR | os.O_CREATE | os.O_APPEND
	default:
		return os.O_RDONLY
	}
}

// Path returns the remote path this proxy stands in for.
func (f *RemoteFile) Path() string { return f.path }

// Dirty reports whether the cache holds writes not yet pushed remotely.
func (f *RemoteFile) Dirty() bool { return f.dirty }

// Closed reports whether the proxy has been closed.
func (f *RemoteFile) Closed() bool { return f.closed }

func (f *RemoteFile) checkOpen() error {
	if f.closed {
		return fmt.Errorf("file %s is closed", f.path)
	}
	return nil
}

func (f *RemoteFile) Read(p []byte) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	return f.file.Read(p)
}

func (f *RemoteFile) Write(p []byte) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if !f.writable() {
		return 0, fmt.Errorf("file %s opened read-only", f.path)
	}
	n, err := f.file.Write(p)
	if n > 0 {
		f.dirty = true
	}
	return n, err
}

// WriteString writes s to the cached copy.
func (f *RemoteFile) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

// WriteLines writes each line followed by a newline.
func (f *RemoteFile) WriteLines(lines []string) error {
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// ReadLine reads the next line from the current position, with the trailing
// newline stripped. At end of file it returns io.EOF. Reads go one byte at a
// time so the underlying position stays exact for Seek and Tell.
func (f *RemoteFile) ReadLine() (string, error) {
	if err := f.checkOpen(); err != nil {
		return "", err
	}
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := f.file.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return string(line), nil
			}
			line = append(line, buf[0])
		}
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				return string(line), nil
			}
			return "", err
		}
	}
}

// LineIter iterates the remaining lines of a RemoteFile in the manner of
// sql.Rows: Next advances, Line returns the current line, Err reports any
// read failure once Next has returned false.
type LineIter struct {
	f    *RemoteFile
	line string
	err  error
}

// Lines returns an iterator over the remaining lines from the current
// position. Seeking back to the start and calling Lines again restarts it.
func (f *RemoteFile) Lines() *LineIter { return &LineIter{f: f} }

func (it *LineIter) Next() bool {
	line, err := it.f.ReadLine()
	if err != nil {
		if err != io.EOF {
			it.err = err
		}
		return false
	}
	it.line = line
	return true
}

func (it *LineIter) Line() string { return it.line }

func (it *LineIter) Err() error { return it.err }

// ReadLines reads all remaining lines from the current position. Trailing
// newlines are stripped.
func (f *RemoteFile) ReadLines() ([]string, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	var lines []string
	scanner := bufio.NewScanner(f.file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ReadAll reads all remaining bytes from the current position.
func (f *RemoteFile) ReadAll() ([]byte, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	return io.ReadAll(f.file)
}

func (f *RemoteFile) Seek(offset int64, whence int) (int64, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	return f.file.Seek(offset, whence)
}

// Tell returns the current position in the file.
func (f *RemoteFile) Tell() (int64, error) {
	return f.Seek(0, io.SeekCurrent)
}

// Flush pushes dirty content back to the remote file. A push failure leaves
// the file dirty so a later Flush retries the same content.
func (f *RemoteFile) Flush(ctx context.Context) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if !f.writable() || !f.dirty {
		return nil
	}
	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("sync cache file: %w", err)
	}
	if err := f.computer.CopyTo(ctx, f.cachePath, f.path); err != nil {
		return logx.Wrap(&SyncError{Path: f.path, Op: "push", Err: err}, "flush remote file")
	}
	f.dirty = false
	return nil
}

// Close flushes pending writes, closes the cached copy, and removes it.
// Closing an already closed file is a no-op.
func (f *RemoteFile) Close(ctx context.Context) error {
	if f.closed {
		return nil
	}
	flushErr := f.Flush(ctx)
	f.closed = true

	if err := f.file.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	if err := os.Remove(f.cachePath); err != nil {
		f.logger.Debug("remove cache file %s: %v", f.cachePath, err)
	}
	return flushErr
}

// WithFile opens a remote file, passes it to fn, and closes it afterwards.
// The close error is returned only if fn succeeded.
func WithFile(ctx context.Context, computer backend.Computer, path, mode string, fn func(*RemoteFile) error) error {
	f, err := OpenFile(ctx, computer, path, mode)
	if err != nil {
		return err
	}
	fnErr := fn(f)
	closeErr := f.Close(ctx)
	if fnErr != nil {
		return fnErr
	}
	return closeErr
}

// ReadRemote reads the full content of a remote file.
func ReadRemote(ctx context.Context, computer backend.Computer, path string) ([]byte, error) {
	var data []byte
	err := WithFile(ctx, computer, path, "r", func(f *RemoteFile) error {
		var readErr error
		data, readErr = f.ReadAll()
		return readErr
	})
	return data, err
}

// WriteRemote replaces the content of a remote file.
func WriteRemote(ctx context.Context, computer backend.Computer, path string, data []byte) error {
	return WithFile(ctx, computer, path, "w", func(f *RemoteFile) error {
		_, err := f.Write(data)
		return err
	})
}
