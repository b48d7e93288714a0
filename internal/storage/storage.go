// Package storage is the public file disk used for user uploads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// PublicPrefix is prepended to disk paths to form the reference stored on
// a record and served under /storage.
const PublicPrefix = "storage/"

// ErrInvalidPath is returned for paths that escape the disk root.
var ErrInvalidPath = errors.New("invalid storage path")

// Store is a minimal file store.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader) error
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// Disk is a Store backed by an afero filesystem.
type Disk struct {
	fs afero.Fs
}

var _ Store = (*Disk)(nil)

// NewDisk returns a disk rooted at dir on the OS filesystem.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return NewDiskFs(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// NewMemDisk returns an in-memory disk.
func NewMemDisk() *Disk {
	return NewDiskFs(afero.NewMemMapFs())
}

// NewDiskFs returns a disk over an existing afero filesystem.
func NewDiskFs(fs afero.Fs) *Disk {
	return &Disk{fs: fs}
}

// Put writes r to name, creating parent directories.
func (d *Disk) Put(_ context.Context, name string, r io.Reader) error {
	clean, err := cleanPath(name)
	if err != nil {
		return err
	}
	if err := d.fs.MkdirAll(path.Dir(clean), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := d.fs.Create(clean)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = d.fs.Remove(clean)
		return fmt.Errorf("write file: %w", err)
	}
	return f.Close()
}

// Delete removes name. Deleting a missing file is not an error.
func (d *Disk) Delete(_ context.Context, name string) error {
	clean, err := cleanPath(name)
	if err != nil {
		return err
	}
	if err := d.fs.Remove(clean); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// Exists reports whether name is present on the disk.
func (d *Disk) Exists(_ context.Context, name string) (bool, error) {
	clean, err := cleanPath(name)
	if err != nil {
		return false, err
	}
	return afero.Exists(d.fs, clean)
}

// FileSystem exposes the disk read-only for static serving. Directories
// are reported as missing so their contents cannot be listed.
func (d *Disk) FileSystem() http.FileSystem {
	return filesOnly{afero.NewHttpFs(afero.NewReadOnlyFs(d.fs)).Dir("/")}
}

type filesOnly struct {
	http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	if st, err := file.Stat(); err != nil || st.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

// PublicPath turns a disk path into the reference stored on a record.
func PublicPath(name string) string {
	return PublicPrefix + strings.TrimPrefix(name, "/")
}

// DiskPath turns a stored reference back into a disk path.
func DiskPath(public string) string {
	return strings.TrimPrefix(public, PublicPrefix)
}

func cleanPath(name string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(name))
	if clean == "/" || strings.Contains(name, "..") {
		return "", ErrInvalidPath
	}
	return clean, nil
}
