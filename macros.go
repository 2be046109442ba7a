package fluent

import (
	"fmt"
	"sync"
)

// MacroFunc adds a custom column shape to a Blueprint.
type MacroFunc func(bp *Blueprint, args ...any) *Column

var (
	macrosMu sync.RWMutex
	macros   = make(map[string]MacroFunc)
)

// RegisterMacro makes fn callable as Blueprint.Call(name, ...). Registering a name
// again replaces the previous function.
func RegisterMacro(name string, fn MacroFunc) {
	macrosMu.Lock()
	defer macrosMu.Unlock()
	macros[name] = fn
}

// HasMacro reports whether a macro called name is registered.
func HasMacro(name string) bool {
	macrosMu.RLock()
	defer macrosMu.RUnlock()
	_, ok := macros[name]
	return ok
}

// Call runs the macro registered as name against b.
func (b *Blueprint) Call(name string, args ...any) (*Column, error) {
	macrosMu.RLock()
	fn, ok := macros[name]
	macrosMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMacro, name)
	}
	return fn(b, args...), nil
}
