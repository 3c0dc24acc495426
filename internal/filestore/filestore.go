package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Attachment describes a stored file. Path is relative to the store root.
type Attachment struct {
	Path string
	Size int64
	Mime string
}

// Store saves message attachments on local disk. Contents are never
// inspected beyond mime sniffing; the declared content type from the client
// is ignored.
type Store struct {
	root    string
	maxSize int64
}

// New creates the store, making the root directory if needed.
func New(root string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("filestore: create root: %w", err)
	}
	return &Store{root: root, maxSize: maxSize}, nil
}

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = fmt.Errorf("filestore: file exceeds size limit")

// Save writes the reader to a new file and returns its metadata. The
// original filename only contributes its extension.
func (s *Store) Save(r io.Reader, originalName string) (Attachment, error) {
	name := uuid.New().String() + filepath.Ext(originalName)
	dst := filepath.Join(s.root, name)

	f, err := os.Create(dst)
	if err != nil {
		return Attachment{}, fmt.Errorf("filestore: create: %w", err)
	}
	defer f.Close()

	limited := r
	if s.maxSize > 0 {
		limited = io.LimitReader(r, s.maxSize+1)
	}
	size, err := io.Copy(f, limited)
	if err != nil {
		_ = os.Remove(dst)
		return Attachment{}, fmt.Errorf("filestore: write: %w", err)
	}
	if s.maxSize > 0 && size > s.maxSize {
		_ = os.Remove(dst)
		return Attachment{}, ErrTooLarge
	}

	mt, err := mimetype.DetectFile(dst)
	if err != nil {
		_ = os.Remove(dst)
		return Attachment{}, fmt.Errorf("filestore: detect mime: %w", err)
	}
	return Attachment{Path: name, Size: size, Mime: mt.String()}, nil
}

// Remove deletes a stored file by its relative path.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	full := filepath.Join(s.root, filepath.Base(path))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
