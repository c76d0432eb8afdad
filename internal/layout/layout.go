// Package layout records measured element heights so the wizard can size its
// scrollable panels to the viewport.
package layout

import (
	"fmt"
	"sync"
)

// Well-known element names.
const (
	Header = "header"
	Footer = "footer"
)

// Entry is one measured element.
type Entry struct {
	Name   string
	Height int
}

// Registry holds named element heights in insertion order plus the page
// (viewport) height. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	entries    []Entry
	pageHeight int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddOrUpdate records the height of name, keeping its original position
// when it is already known.
func (r *Registry) AddOrUpdate(name string, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].Name == name {
			r.entries[i].Height = height
			return
		}
	}
	r.entries = append(r.entries, Entry{Name: name, Height: height})
}

// Remove forgets name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].Name == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Height returns the recorded height of name, or 0 when unknown.
func (r *Registry) Height(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Name == name {
			return e.Height
		}
	}
	return 0
}

// Names returns the recorded element names in insertion order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// All returns a copy of every entry.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

// SetPageHeight records the viewport height.
func (r *Registry) SetPageHeight(height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pageHeight = height
}

// PageHeight returns the viewport height.
func (r *Registry) PageHeight() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pageHeight
}

// Available returns the viewport height left for content once the header and
// footer are subtracted.
func (r *Registry) Available() int {
	return CalculateHeight(r.PageHeight(), r.Height(Header), r.Height(Footer))
}

// CalculateHeight returns page minus header minus footer, never negative.
func CalculateHeight(page, header, footer int) int {
	h := page - header - footer
	if h < 0 {
		return 0
	}
	return h
}

// CSS formats a height as a CSS pixel length.
func CSS(height int) string {
	return fmt.Sprintf("%dpx", height)
}
