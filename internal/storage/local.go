package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Local struct {
	baseDir string
	dirs    Directories
	now     func() time.Time
	logger  *logrus.Logger
}

func NewLocal(baseDir string, dirs Directories, logger *logrus.Logger) (*Local, error) {
	for _, dir := range dirs {
		full := filepath.Join(baseDir, dir)
		if err := os.MkdirAll(full, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", full, err)
		}
	}

	return &Local{baseDir: baseDir, dirs: dirs, now: time.Now, logger: logger}, nil
}

func (l *Local) Mode() string { return "local" }

// BaseDir is the directory served under /uploads.
func (l *Local) BaseDir() string { return l.baseDir }

func (l *Local) Put(ctx context.Context, f *File, kind Kind, ownerID uint) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	folder, err := l.dirs.folder(kind)
	if err != nil {
		return "", err
	}

	filename := FileName(ownerID, f.Extension(), l.now())
	fullPath := filepath.Join(l.baseDir, folder, filename)

	if err := os.WriteFile(fullPath, f.Content, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	l.logger.WithFields(logrus.Fields{"kind": kind, "path": fullPath}).Debug("stored upload")
	return path.Join(folder, filename), nil
}

// Delete removes a file previously returned by Put. Paths resolving outside
// the base directory are rejected.
func (l *Local) Delete(ctx context.Context, relative string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	absPath, err := filepath.Abs(filepath.Join(l.baseDir, strings.TrimPrefix(relative, "/")))
	if err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	baseAbs, err := filepath.Abs(l.baseDir)
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}
	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = realPath
	}
	if realBase, err := filepath.EvalSymlinks(baseAbs); err == nil {
		baseAbs = realBase
	}
	if !strings.HasPrefix(absPath, baseAbs+string(filepath.Separator)) {
		return fmt.Errorf("file path outside uploads directory")
	}

	if err := os.Remove(absPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", relative)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
