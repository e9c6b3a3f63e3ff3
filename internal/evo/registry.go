package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrStrategyExists   = errors.New("strategy already registered")
	ErrStrategyNotFound = errors.New("strategy not found")
)

type registry[T any] struct {
	mu       sync.RWMutex
	kind     string
	fallback string
	m        map[string]func() T
}

func (r *registry[T]) register(name string, factory func() T) error {
	if name == "" {
		return fmt.Errorf("%s name is required", r.kind)
	}
	if factory == nil {
		return fmt.Errorf("%s factory is required", r.kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.m[name]; exists {
		return fmt.Errorf("%w: %s %s", ErrStrategyExists, r.kind, name)
	}
	r.m[name] = factory
	return nil
}

func (r *registry[T]) resolve(name string) (T, error) {
	if name == "" {
		name = r.fallback
	}
	r.mu.RLock()
	factory, ok := r.m[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %w: %s %q", ErrInvalidConfig, ErrStrategyNotFound, r.kind, name)
	}
	return factory(), nil
}

func (r *registry[T]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var selectors = &registry[Selector]{
	kind:     "selection strategy",
	fallback: "roulette",
	m: map[string]func() Selector{
		"roulette":   func() Selector { return RouletteSelector{} },
		"tournament": func() Selector { return TournamentSelector{} },
	},
}

var postprocessors = &registry[FitnessPostprocessor]{
	kind:     "fitness postprocessor",
	fallback: "none",
	m: map[string]func() FitnessPostprocessor{
		"none":              func() FitnessPostprocessor { return NoopFitnessPostprocessor{} },
		"size_proportional": func() FitnessPostprocessor { return SizeProportionalPostprocessor{} },
	},
}

// RegisterSelector makes a selection strategy resolvable by name.
func RegisterSelector(name string, factory func() Selector) error {
	return selectors.register(name, factory)
}

// SelectorFromName resolves a selection strategy; "" means roulette.
func SelectorFromName(name string) (Selector, error) {
	return selectors.resolve(name)
}

func ListSelectors() []string {
	return selectors.names()
}

func RegisterPostprocessor(name string, factory func() FitnessPostprocessor) error {
	return postprocessors.register(name, factory)
}

// PostprocessorFromName resolves a fitness postprocessor; "" means none.
func PostprocessorFromName(name string) (FitnessPostprocessor, error) {
	return postprocessors.resolve(name)
}

func ListPostprocessors() []string {
	return postprocessors.names()
}
