package plugin

import (
	"fmt"
	"sort"
	"sync"

	"firestige.xyz/framepeek/internal/core"
)

// CapturerFactory creates a new Capturer instance.
type CapturerFactory func() Capturer

// ReporterFactory creates a new Reporter instance.
type ReporterFactory func() Reporter

type registry[F any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]F
}

func newRegistry[F any](kind string) *registry[F] {
	return &registry[F]{kind: kind, factories: make(map[string]F)}
}

// register panics on programming errors: registration happens in init().
func (r *registry[F]) register(name string, factory F, isNil bool) {
	if name == "" {
		panic(fmt.Sprintf("plugin: %s name must not be empty", r.kind))
	}
	if isNil {
		panic(fmt.Sprintf("plugin: %s %q registered with nil factory", r.kind, name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("plugin: %s %q already registered", r.kind, name))
	}
	r.factories[name] = factory
}

func (r *registry[F]) get(name string) (F, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		var zero F
		return zero, fmt.Errorf("%w: %s %q", core.ErrPluginNotFound, r.kind, name)
	}
	return f, nil
}

func (r *registry[F]) list() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset removes all registrations. Intended for tests.
func (r *registry[F]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]F)
}

var (
	capturerReg = newRegistry[CapturerFactory]("capturer")
	reporterReg = newRegistry[ReporterFactory]("reporter")
)

// RegisterCapturer registers a capturer factory. Panics on duplicates.
func RegisterCapturer(name string, factory CapturerFactory) {
	capturerReg.register(name, factory, factory == nil)
}

// GetCapturerFactory returns the capturer factory registered under name.
func GetCapturerFactory(name string) (CapturerFactory, error) {
	return capturerReg.get(name)
}

// ListCapturers returns registered capturer names, sorted.
func ListCapturers() []string {
	return capturerReg.list()
}

// RegisterReporter registers a reporter factory. Panics on duplicates.
func RegisterReporter(name string, factory ReporterFactory) {
	reporterReg.register(name, factory, factory == nil)
}

// GetReporterFactory returns the reporter factory registered under name.
func GetReporterFactory(name string) (ReporterFactory, error) {
	return reporterReg.get(name)
}

// ListReporters returns registered reporter names, sorted.
func ListReporters() []string {
	return reporterReg.list()
}
