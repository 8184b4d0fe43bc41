package common

import "errors"

// ErrModulePaused is returned by Guard while an operator pause is active for
// the module.
var ErrModulePaused = errors.New("module paused")

// PauseView reports operator pauses. The zero value (nil) means nothing is
// paused.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects mutations while the named module is paused.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// PauseSet is a static PauseView for configuration-driven pauses.
type PauseSet map[string]bool

func (s PauseSet) IsPaused(module string) bool { return s[module] }
