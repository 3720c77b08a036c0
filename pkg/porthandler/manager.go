package porthandler

import (
	"log/slog"
)

// Manager owns a set of port handlers and controls their lifecycle.
type Manager struct {
	Log *slog.Logger

	handlers []*PortHandler
}

// AddHandler registers a port handler for an address.
// The handler starts listening when Start is called.
func (m *Manager) AddHandler(address string, d *Dispatcher) {
	m.handlers = append(m.handlers, &PortHandler{
		Address:    address,
		Dispatcher: d,
		Log:        m.Log,
	})
}

// Start opens all listening sockets.
// On failure, already opened sockets are closed again.
func (m *Manager) Start() error {
	for i, h := range m.handlers {
		err := h.Initialize()
		if err != nil {
			for _, prev := range m.handlers[:i] {
				prev.Close()
			}
			return err
		}
	}
	return nil
}

// Close closes all port handlers.
func (m *Manager) Close() {
	for _, h := range m.handlers {
		h.Close()
	}
}
