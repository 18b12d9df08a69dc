package formatters

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/millrace/flume/pkg/types"
)

// Factory creates formatter instances by name. Configuration layers
// use it to turn a format string into a formatter without linking the
// choice at compile time.
type Factory struct {
	mu         sync.RWMutex
	formatters map[string]Constructor
}

// Constructor is a function that creates a formatter
type Constructor func() (types.Formatter, error)

// NewFactory creates a factory with the built-in formatters registered
func NewFactory() *Factory {
	f := &Factory{
		formatters: make(map[string]Constructor),
	}

	_ = f.Register("text", func() (types.Formatter, error) {
		return NewTextFormatter(), nil
	})

	_ = f.Register("json", func() (types.Formatter, error) {
		return NewJSONFormatter(), nil
	})

	return f
}

// Register registers a formatter constructor under a name
func (f *Factory) Register(name string, constructor Constructor) error {
	if name == "" {
		return errors.New("formatter name cannot be empty")
	}
	if constructor == nil {
		return errors.New("formatter constructor cannot be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.formatters[name] = constructor
	return nil
}

// Create creates a formatter by name
func (f *Factory) Create(name string) (types.Formatter, error) {
	f.mu.RLock()
	constructor, exists := f.formatters[name]
	f.mu.RUnlock()

	if !exists {
		return nil, errors.Errorf("formatter %q not registered", name)
	}

	return constructor()
}

// List returns the names of all registered formatters
func (f *Factory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.formatters))
	for name := range f.formatters {
		names = append(names, name)
	}

	return names
}

// DefaultFactory is the global formatter factory
var DefaultFactory = NewFactory()

// Register registers a formatter with the default factory
func Register(name string, constructor Constructor) error {
	return DefaultFactory.Register(name, constructor)
}

// Create creates a formatter using the default factory
func Create(name string) (types.Formatter, error) {
	return DefaultFactory.Create(name)
}

// List returns the names known to the default factory
func List() []string {
	return DefaultFactory.List()
}
