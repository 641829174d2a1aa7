//go:build !darwin

package hotkey

import (
	"context"

	"github.com/yok-tottii/EzKeymap/internal/keycombo"
)

func probe(_ context.Context, _ keycombo.Combination, release func()) error {
	release()
	return ErrUnsupported
}
