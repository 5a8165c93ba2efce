// Package storage persists uploaded files for the console, either on the local
// disk or in an S3 bucket.
package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

type Kind string

const ProfilePicture Kind = "profile-picture"

// File is an upload held in memory until it is validated and stored.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     []byte
}

// Extension is guessed from the content, falling back to the client file name
// when the content type is unknown.
func (f *File) Extension() string {
	if ext := mimetype.Detect(f.Content).Extension(); ext != "" {
		return strings.TrimPrefix(ext, ".")
	}
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

type Storage interface {
	// Put stores the file and returns the path to record on the owner.
	Put(ctx context.Context, f *File, kind Kind, ownerID uint) (string, error)
	Delete(ctx context.Context, path string) error
	Mode() string
}

// FileName builds "<md5(owner id)>-<Y-m-d-H-i-s>.<ext>".
func FileName(ownerID uint, ext string, now time.Time) string {
	sum := md5.Sum([]byte(strconv.FormatUint(uint64(ownerID), 10)))
	name := hex.EncodeToString(sum[:]) + "-" + now.Format("2006-01-02-15-04-05")
	if ext != "" {
		name += "." + ext
	}
	return name
}

// Directories maps each kind to the folder its files are stored under.
type Directories map[Kind]string

func (d Directories) folder(kind Kind) (string, error) {
	dir, ok := d[kind]
	if !ok {
		return "", fmt.Errorf("no storage directory configured for %q", kind)
	}
	return strings.Trim(dir, "/"), nil
}
