package compare

import (
	"errors"
	"fmt"
)

// Engine selects the comparison strategy.
type Engine string

const (
	// EngineStructural is the order-insensitive, path-aware tree diff.
	EngineStructural Engine = "structural"
	// EngineFlat compares flattened leaf-path mappings key by key.
	EngineFlat Engine = "flat"
)

// ErrUnsupportedEngine is returned for an unknown engine name.
var ErrUnsupportedEngine = errors.New("unsupported comparison engine")

// ParseEngine validates an engine name. An empty name defaults to the
// structural engine.
func ParseEngine(name string) (Engine, error) {
	switch Engine(name) {
	case EngineStructural:
		return EngineStructural, nil
	case EngineFlat:
		return EngineFlat, nil
	case "":
		return EngineStructural, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedEngine, name)
	}
}
