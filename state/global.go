package state

import (
	"sync"
	"sync/atomic"
)

// the meter state is read for every instrumented client created at
// configuration time, while it is only written on registration.
var globalState atomic.Pointer[OTELState]

var (
	globalConfig      Config
	globalConfigMutex sync.RWMutex
)

var _ GetterFn = GlobalState

// GlobalState returns the meter state stored by the registration
// functions, or nil when the http client metrics have not been
// registered (so callers can fall back to the global otel meter).
func GlobalState() OTEL {
	if s := globalState.Load(); s != nil {
		return s
	}
	return nil
}

// SetGlobalState stores the meter state used by [GlobalState]. A nil
// state unregisters the previous one.
func SetGlobalState(s *OTELState) {
	globalState.Store(s)
}

// SetGlobalConfig stores the parsed http client metrics configuration,
// to be used when instrumenting the backends.
func SetGlobalConfig(cfg Config) {
	globalConfigMutex.Lock()
	globalConfig = cfg
	globalConfigMutex.Unlock()
}

// GlobalConfig returns the stored configuration, or nil if the http
// client metrics have not been registered.
func GlobalConfig() Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()
	return globalConfig
}
