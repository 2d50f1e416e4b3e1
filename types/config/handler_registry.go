package config

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/RezaEskandarii/gohire/types"
)

// ItemHandler applies an operation's action to one target.
// A returned error marks the item failed; it never aborts the operation.
type ItemHandler interface {
	Handle(ctx context.Context, op *types.Operation, params types.OperationParams, item types.OperationItem) error
}

type ItemHandlerFunc func(ctx context.Context, op *types.Operation, params types.OperationParams, item types.OperationItem) error

func (f ItemHandlerFunc) Handle(ctx context.Context, op *types.Operation, params types.OperationParams, item types.OperationItem) error {
	return f(ctx, op, params, item)
}

type HandlerRegistry struct {
	handlers map[string]ItemHandler
	mutex    sync.RWMutex
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string]ItemHandler),
	}
}

// Register adds a new handler for an operation type.
func (r *HandlerRegistry) Register(name string, handler ItemHandler) error {
	if name == "" || handler == nil {
		return fmt.Errorf("handler must have an operation type and an implementation")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler '%s' already registered", name)
	}
	r.handlers[name] = handler
	return nil
}

func (r *HandlerRegistry) Exists(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.handlers[name]
	return exists
}

func (r *HandlerRegistry) Get(name string) (ItemHandler, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	handler, exists := r.handlers[name]
	if !exists {
		return nil, fmt.Errorf("handler '%s' not found", name)
	}
	return handler, nil
}

func (r *HandlerRegistry) List() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
