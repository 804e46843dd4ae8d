// Package storage retains uploaded files on disk so image attachments can
// be served back to the client. Nothing else is persisted: sessions and
// generated content live in memory only.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileManager writes uploads into a single directory under fresh
// uuid-based names, keeping the original extension.
type FileManager struct {
	uploadsDir     string
	maxUploadBytes int64
}

// NewFileManager creates the uploads directory if needed.
func NewFileManager(uploadsDir string, maxUploadBytes int64) (*FileManager, error) {
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir %s: %w", uploadsDir, err)
	}
	return &FileManager{uploadsDir: uploadsDir, maxUploadBytes: maxUploadBytes}, nil
}

// Dir returns the uploads directory, for mounting a static file server.
func (fm *FileManager) Dir() string {
	return fm.uploadsDir
}

// SaveUpload stores one uploaded file and returns its path on disk and
// the name it was stored under.
func (fm *FileManager) SaveUpload(file multipart.File, filename string) (path, storedName string, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	storedName = uuid.NewString() + ext
	path = filepath.Join(fm.uploadsDir, storedName)

	if err := fm.writeWithLimit(path, file); err != nil {
		return "", "", err
	}
	return path, storedName, nil
}

func (fm *FileManager) writeWithLimit(path string, file multipart.File) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}

	cleanup := func(err error) error {
		out.Close()
		os.Remove(path)
		return err
	}

	var total int64
	buf := make([]byte, 32*1024)
	for {
		n, rerr := file.Read(buf)
		if n > 0 {
			total += int64(n)
			if fm.maxUploadBytes > 0 && total > fm.maxUploadBytes {
				return cleanup(fmt.Errorf("file exceeds maximum upload size"))
			}
			if _, werr := out.Write(buf[:n]); werr != nil {
				return cleanup(fmt.Errorf("write upload file: %w", werr))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return cleanup(fmt.Errorf("read upload content: %w", rerr))
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close upload file: %w", err)
	}
	return nil
}
