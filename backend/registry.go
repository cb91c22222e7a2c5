// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package backend selects among the platform adapters that implement
// livewall.Backend. Platform packages register a factory from init();
// Default picks the best available one for the running desktop.
package backend

import (
	"errors"
	"sync"

	"github.com/gogpu/livewall"
)

// Well-known backend names.
const (
	NameWayland  = "wayland"
	NameX11      = "x11"
	NameWindows  = "windows"
	NameWindowed = "windowed"
)

// ErrNoBackend is returned when no registered backend can connect to
// the running desktop.
var ErrNoBackend = errors.New("backend: no backend available")

// Factory connects a backend to the platform. A factory returns an
// error when its platform is not present (no Wayland socket, no X
// display); Default then tries the next one.
type Factory func() (livewall.Backend, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Selection order: compositing desktops first, the windowed
	// fallback last.
	priority = []string{NameWayland, NameX11, NameWindows, NameWindowed}
)

// Register registers a backend factory with the given name. Platform
// packages call it from init(); registering an existing name replaces
// the factory.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Unregister removes a backend from the registry. Useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// IsRegistered reports whether a backend with the given name exists.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get connects the named backend. ErrNoBackend when unregistered.
func Get(name string) (livewall.Backend, error) {
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrNoBackend
	}
	return f()
}

// Default connects the best available backend in priority order,
// then tries any remaining registered factory. ErrNoBackend when
// nothing connects.
func Default() (livewall.Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	tried := make(map[string]bool, len(factories))
	for _, name := range priority {
		f, ok := factories[name]
		if !ok {
			continue
		}
		tried[name] = true
		b, err := f()
		if err == nil {
			return b, nil
		}
		livewall.Logger().Debug("backend unavailable", "name", name, "error", err)
	}
	for name, f := range factories {
		if tried[name] {
			continue
		}
		b, err := f()
		if err == nil {
			return b, nil
		}
		livewall.Logger().Debug("backend unavailable", "name", name, "error", err)
	}
	return nil, ErrNoBackend
}
