// Package shm publishes terminal grid state through a memory-mapped file
// guarded by a sequence lock. The writer never blocks on readers; readers
// retry until they observe a stable even sequence number.
package shm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/scarab-term/scarab/internal/protocol"
)

// Region is a memory-mapped grid of protocol.Cell values plus a small header.
type Region struct {
	path     string
	file     *os.File
	data     []byte
	width    int
	height   int
	writable bool
}

// Create truncates or creates the file at path, sizes it for a w x h grid,
// and maps it read-write.
func Create(path string, w, h int) (*Region, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("shm: invalid grid size %dx%d", w, h)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}
	size := protocol.RegionSize(w, h)
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: truncate %s: %w", path, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}
	return &Region{path: path, file: f, data: data, width: w, height: h, writable: true}, nil
}

// Open maps an existing region read-only. The caller supplies the grid
// dimensions; the file size must match.
func Open(path string, w, h int) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}
	size := protocol.RegionSize(w, h)
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: stat %s: %w", path, err)
	}
	if st.Size() != int64(size) {
		f.Close()
		return nil, fmt.Errorf("shm: %s is %d bytes, need %d for %dx%d", path, st.Size(), size, w, h)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}
	return &Region{path: path, file: f, data: data, width: w, height: h}, nil
}

// Width returns the grid width in cells.
func (r *Region) Width() int { return r.width }

// Height returns the grid height in cells.
func (r *Region) Height() int { return r.height }

// Path returns the backing file path.
func (r *Region) Path() string { return r.path }

// Close unmaps the region and closes the backing file.
func (r *Region) Close() error {
	var first error
	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil && first == nil {
			first = err
		}
		r.data = nil
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil && first == nil {
			first = err
		}
		r.file = nil
	}
	return first
}

// Remove closes the region and deletes the backing file.
func (r *Region) Remove() error {
	err := r.Close()
	if rmErr := os.Remove(r.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}
