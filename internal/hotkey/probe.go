// Package hotkey checks whether a key combination can be registered as a
// global hotkey with the operating system.
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yok-tottii/EzKeymap/internal/keycombo"
)

var (
	// ErrUnsupported is returned on platforms without a probe
	ErrUnsupported = errors.New("hotkey probing is not supported on this platform")
	// ErrUnmappable is returned when the base key has no OS key code
	ErrUnmappable = errors.New("key cannot be registered as a global hotkey")
	// ErrBusy is returned while an earlier registration has not returned
	ErrBusy = errors.New("another hotkey check is still running")
)

// inflight holds a token while a registration is outstanding
var inflight = make(chan struct{}, 1)

// DefaultTimeout bounds a single probe. Registration is dispatched to the
// main run loop, which is absent in headless mode.
const DefaultTimeout = 2 * time.Second

// Result reports whether the OS accepted the combination
type Result struct {
	KeyCombination string `json:"keyCombination"`
	Available      bool   `json:"available"`
	Reason         string `json:"reason,omitempty"`
}

// Probe registers combo, then immediately unregisters it. A refusal by the
// OS is reported in Result; invalid input and the Err values of this package
// come back as errors. At most one registration is outstanding at a time.
func Probe(ctx context.Context, combo string) (Result, error) {
	if !keycombo.IsValid(combo) {
		return Result{}, fmt.Errorf("invalid key combination: %q", combo)
	}

	c := keycombo.Normalize(combo)
	res := Result{KeyCombination: c.String()}

	select {
	case inflight <- struct{}{}:
	default:
		return res, ErrBusy
	}
	release := func() { <-inflight }

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	err := probe(ctx, c, release)
	switch {
	case err == nil:
		res.Available = true
	case errors.Is(err, ErrUnsupported), errors.Is(err, ErrUnmappable):
		return res, err
	default:
		res.Reason = err.Error()
	}
	return res, nil
}
