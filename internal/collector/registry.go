package collector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/swissjobmarket/jobscan/internal/config"
)

// registry maps source names to their collector constructors. Collectors
// register themselves from init in their own package; the pipeline looks
// them up by name.
var (
	regMu    sync.RWMutex
	registry = make(map[string]func(cfg *config.Config) Collector)
)

// Register adds a collector constructor under the source name. Registering
// the same name twice panics; that is a wiring bug, not a runtime condition.
func Register(name string, newFn func(cfg *config.Config) Collector) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("collector: duplicate registration for %q", name))
	}
	registry[name] = newFn
}

// Lookup builds a new collector instance for the source name using the
// given configuration.
func Lookup(name string, cfg *config.Config) (Collector, error) {
	regMu.RLock()
	newFn, ok := registry[name]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return newFn(cfg), nil
}

// Names returns the registered source names, sorted.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
