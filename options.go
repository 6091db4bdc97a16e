package taskgraph

import "sync"

// Options is a task's key-value options store. A task may provide defaults
// through the Optioned interface; after the pipeline is built, values are
// mutable only through this store.
type Options struct {
	mu sync.RWMutex
	m  map[string]any
}

func NewOptions() *Options {
	return &Options{m: map[string]any{}}
}

func (o *Options) Set(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.m[key] = value
}

func (o *Options) Get(key string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.m[key]
	return v, ok
}

func (o *Options) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	keys := make([]string, 0, len(o.m))
	for k := range o.m {
		keys = append(keys, k)
	}
	return keys
}

// OptionValue reads a typed option. The second return is false if the key is
// absent or holds a value of a different type.
func OptionValue[T any](o *Options, key string) (T, bool) {
	v, ok := o.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
