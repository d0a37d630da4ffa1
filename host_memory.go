package glc

import (
	"sync"

	"github.com/glc3d/glc/render/gpu"
	"github.com/pkg/errors"
)

// MemoryHost is a HostEnvironment backed by maps. Hosts with a fixed set of
// surfaces register them up front.
type MemoryHost struct {
	mu       sync.RWMutex
	targets  map[string]gpu.Target
	surfaces map[string]Surface
}

func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		targets:  make(map[string]gpu.Target),
		surfaces: make(map[string]Surface),
	}
}

func (h *MemoryHost) AddTarget(id string, target gpu.Target) *MemoryHost {
	h.mu.Lock()
	h.targets[id] = target
	h.mu.Unlock()
	return h
}

func (h *MemoryHost) AddSurface(id string, surface Surface) *MemoryHost {
	h.mu.Lock()
	h.surfaces[id] = surface
	h.mu.Unlock()
	return h
}

func (h *MemoryHost) RenderTarget(id string) (gpu.Target, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.targets[id]
	if !ok {
		return nil, errors.Wrapf(ErrSurfaceNotFound, "render target %q", id)
	}
	return t, nil
}

func (h *MemoryHost) Surface(id string) (Surface, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.surfaces[id]
	if !ok {
		return nil, errors.Wrapf(ErrSurfaceNotFound, "surface %q", id)
	}
	return s, nil
}
