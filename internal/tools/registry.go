package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry is the fixed set of tools the agent may call. Registration happens
// at startup; Describe and Execute are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Descriptor
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(d Descriptor) error {
	if d.Schema.Name == "" {
		return fmt.Errorf("register tool: empty name")
	}
	if d.Handler == nil {
		return fmt.Errorf("register tool %q: nil handler", d.Schema.Name)
	}
	seen := make(map[string]bool, len(d.Schema.Params))
	for _, p := range d.Schema.Params {
		if seen[p.Name] {
			return fmt.Errorf("register tool %q: parameter %q declared twice", d.Schema.Name, p.Name)
		}
		seen[p.Name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[d.Schema.Name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, d.Schema.Name)
	}
	r.byName[d.Schema.Name] = d
	r.order = append(r.order, d.Schema.Name)
	return nil
}

// Describe returns every schema in registration order.
func (r *Registry) Describe() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Schema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].Schema)
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Execute validates args and runs the named tool. It always returns a Result
// fit for the conversation. The error is non-nil only when the call never
// reached the handler: ErrUnknownTool or an *ArgumentError. Handler failures,
// panics included, come back as error results with a nil error.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (Result, error) {
	r.mu.RLock()
	d, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return Failure(fmt.Sprintf("unknown tool %q; call one of the listed tools instead", name)),
			fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if args == nil {
		args = map[string]interface{}{}
	}
	if err := validate(d.Schema, args); err != nil {
		return Failure(err.Error()), err
	}

	res, err := run(ctx, d.Handler, args)
	if err != nil {
		log.Warn().Err(err).Str("tool", name).Msg("tool handler failed")
		return Failure(fmt.Sprintf("%s failed: %v", name, err)), nil
	}
	return res, nil
}

func run(ctx context.Context, h Handler, args map[string]interface{}) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return h(ctx, args)
}
