//go:build darwin

package hotkey

import (
	"context"
	"fmt"
	"strings"

	"golang.design/x/hotkey"

	"github.com/yok-tottii/EzKeymap/internal/keycombo"
)

// namedKeys maps base-key names to macOS virtual key codes
var namedKeys = map[string]hotkey.Key{
	"Space":     hotkey.KeySpace,
	"Return":    hotkey.KeyReturn,
	"Enter":     hotkey.KeyReturn,
	"Tab":       hotkey.KeyTab,
	"Esc":       hotkey.KeyEscape,
	"Escape":    hotkey.KeyEscape,
	"Delete":    hotkey.KeyDelete,
	"Backspace": hotkey.KeyDelete,
	"Left":      hotkey.Key(0x7B),
	"Right":     hotkey.Key(0x7C),
	"Down":      hotkey.Key(0x7D),
	"Up":        hotkey.Key(0x7E),
	"F1":        hotkey.Key(0x7A),
	"F2":        hotkey.Key(0x78),
	"F3":        hotkey.Key(0x63),
	"F4":        hotkey.Key(0x76),
	"F5":        hotkey.Key(0x60),
	"F6":        hotkey.Key(0x61),
	"F7":        hotkey.Key(0x62),
	"F8":        hotkey.Key(0x64),
	"F9":        hotkey.Key(0x65),
	"F10":       hotkey.Key(0x6D),
	"F11":       hotkey.Key(0x67),
	"F12":       hotkey.Key(0x6F),
}

var letterKeys = []hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF,
	hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL,
	hotkey.KeyM, hotkey.KeyN, hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR,
	hotkey.KeyS, hotkey.KeyT, hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX,
	hotkey.KeyY, hotkey.KeyZ,
}

var digitKeys = []hotkey.Key{
	hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
	hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
}

// keyCode converts a base key to its virtual key code
func keyCode(base string) (hotkey.Key, bool) {
	if k, ok := namedKeys[base]; ok {
		return k, true
	}

	if len(base) == 1 {
		ch := strings.ToUpper(base)[0]
		switch {
		case ch >= 'A' && ch <= 'Z':
			return letterKeys[ch-'A'], true
		case ch >= '0' && ch <= '9':
			return digitKeys[ch-'0'], true
		}
	}

	return 0, false
}

// modifiers converts canonical modifier symbols
func modifiers(symbols []string) ([]hotkey.Modifier, bool) {
	mods := make([]hotkey.Modifier, 0, len(symbols))
	for _, s := range symbols {
		switch s {
		case keycombo.Control:
			mods = append(mods, hotkey.ModCtrl)
		case keycombo.Option:
			mods = append(mods, hotkey.ModOption)
		case keycombo.Shift:
			mods = append(mods, hotkey.ModShift)
		case keycombo.Command:
			mods = append(mods, hotkey.ModCmd)
		default:
			return nil, false
		}
	}
	return mods, true
}

// probe runs Register on its own goroutine. When the run loop never picks it
// up the goroutine outlives ctx, so release is called only once the OS call
// has returned and the next probe waits for it.
func probe(ctx context.Context, c keycombo.Combination, release func()) error {
	key, ok := keyCode(c.BaseKey)
	if !ok {
		release()
		return fmt.Errorf("%w: %s", ErrUnmappable, c.BaseKey)
	}
	mods, ok := modifiers(c.Modifiers)
	if !ok {
		release()
		return fmt.Errorf("%w: %s", ErrUnmappable, c.String())
	}

	hk := hotkey.New(mods, key)
	done := make(chan error, 1)
	go func() {
		defer release()
		if err := hk.Register(); err != nil {
			done <- fmt.Errorf("failed to register hotkey: %w", err)
			return
		}
		if err := hk.Unregister(); err != nil {
			done <- fmt.Errorf("failed to unregister hotkey: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("hotkey registration timed out: %w", ctx.Err())
	}
}
