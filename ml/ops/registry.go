// Package ops exposes the pose estimator as named operations over tensors.
package ops

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/houghvoting/ml"
)

// Op is an operation from named input tensors to named output tensors.
type Op interface {
	Run(ctx context.Context, inputs ml.Tensors) (ml.Tensors, error)
}

// OpFunc adapts a function to an Op.
type OpFunc func(ctx context.Context, inputs ml.Tensors) (ml.Tensors, error)

// Run calls f.
func (f OpFunc) Run(ctx context.Context, inputs ml.Tensors) (ml.Tensors, error) {
	return f(ctx, inputs)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Op{}
)

// Register makes op available under name. It panics if name is empty, op is nil or name is taken.
func Register(name string, op Op) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if name == "" {
		panic("cannot register an op without a name")
	}
	if op == nil {
		panic(errors.Errorf("cannot register a nil op as %q", name))
	}
	if _, ok := registry[name]; ok {
		panic(errors.Errorf("trying to register two ops with the same name %q", name))
	}
	registry[name] = op
}

// Lookup returns the op registered under name.
func Lookup(name string) (Op, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	op, ok := registry[name]
	return op, ok
}

// RegisteredOps returns the names of every registered op, sorted.
func RegisteredOps() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}
