package images

import (
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ErrUnknownImage is returned when a placement references an image ID that
// was never transmitted.
var ErrUnknownImage = errors.New("images: unknown image id")

// Image is a fully transmitted image held by the registry.
type Image struct {
	ID     uint32
	Format Format
	Width  int
	Height int
	Data   []byte

	// Hash is the xxhash of Data, used to share storage between images
	// transmitted more than once.
	Hash uint64
}

// Placement positions an image on the terminal grid.
type Placement struct {
	ImageID     uint32
	PlacementID uint32
	Col, Row    int
	Cols, Rows  int
	ZIndex      int
}

// Registry stores transmitted images and their placements for one session.
// Safe for concurrent use.
type Registry struct {
	mu         sync.Mutex
	images     map[uint32]*Image
	byHash     map[uint64][]byte
	placements map[uint32]Placement // keyed by placement ID
	generation uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		images:     make(map[uint32]*Image),
		byHash:     make(map[uint64][]byte),
		placements: make(map[uint32]Placement),
	}
}

// Store registers a transmitted image. Payloads seen before are shared by
// content hash rather than stored twice.
func (r *Registry) Store(id uint32, format Format, width, height int, data []byte) *Image {
	h := xxhash.Sum64(data)

	r.mu.Lock()
	defer r.mu.Unlock()
	if shared, ok := r.byHash[h]; ok && len(shared) == len(data) {
		data = shared
	} else {
		r.byHash[h] = data
	}
	img := &Image{ID: id, Format: format, Width: width, Height: height, Data: data, Hash: h}
	r.images[id] = img
	r.generation++
	return img
}

// Get returns the image with the given ID.
func (r *Registry) Get(id uint32) (*Image, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[id]
	return img, ok
}

// Place records a placement for a previously transmitted image.
func (r *Registry) Place(p Placement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.images[p.ImageID]; !ok {
		return ErrUnknownImage
	}
	r.placements[p.PlacementID] = p
	r.generation++
	return nil
}

// Delete removes an image and every placement that references it. Deleting
// an unknown ID is a no-op, matching the protocol's tolerant delete.
func (r *Registry) Delete(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[id]
	if !ok {
		return
	}
	delete(r.images, id)
	for pid, p := range r.placements {
		if p.ImageID == id {
			delete(r.placements, pid)
		}
	}
	// Drop the shared payload only when no other image references it.
	shared := false
	for _, other := range r.images {
		if other.Hash == img.Hash {
			shared = true
			break
		}
	}
	if !shared {
		delete(r.byHash, img.Hash)
	}
	r.generation++
}

// Placements returns a copy of the current placements.
func (r *Registry) Placements() []Placement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Placement, 0, len(r.placements))
	for _, p := range r.placements {
		out = append(out, p)
	}
	return out
}

// Generation increases every time the registry changes. Consumers compare it
// to skip work when nothing moved.
func (r *Registry) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// Len returns the number of stored images.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.images)
}
