//go:build darwin || (linux && x11)

package hotkeys

import (
	"golang.design/x/hotkey"

	"hushdesk/internal/shortcuts"
)

type xBackend struct{}

func newPlatformBackend() backend {
	return xBackend{}
}

// xRegistration forwards key transitions of one hotkey until released.
type xRegistration struct {
	hk   *hotkey.Hotkey
	stop chan struct{}
	done chan struct{}
}

func (xBackend) register(combo shortcuts.Combo, emit func(shortcuts.Event)) (registration, error) {
	mods, key, err := xhotkeyCodes(combo)
	if err != nil {
		return nil, err
	}
	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, err
	}

	r := &xRegistration{
		hk:   hk,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go r.forward(combo, emit)
	return r, nil
}

func (r *xRegistration) forward(combo shortcuts.Combo, emit func(shortcuts.Event)) {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		case <-r.hk.Keydown():
			emit(shortcuts.Event{Combo: combo, State: shortcuts.Pressed})
		case <-r.hk.Keyup():
			emit(shortcuts.Event{Combo: combo, State: shortcuts.Released})
		}
	}
}

func (r *xRegistration) unregister() error {
	close(r.stop)
	<-r.done
	return r.hk.Unregister()
}
