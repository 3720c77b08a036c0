package porthandler

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"github.com/Arjentix/Media-Server/pkg/base"
	"github.com/Arjentix/Media-Server/pkg/conn"
)

// PortHandler owns one listening TCP socket and serves every
// accepted connection with a request/response loop.
type PortHandler struct {
	Address    string
	Dispatcher *Dispatcher
	Log        *slog.Logger

	ln net.Listener
	wg sync.WaitGroup
}

// Initialize opens the listening socket and starts the accept loop.
func (h *PortHandler) Initialize() error {
	if h.Log == nil {
		h.Log = slog.Default()
	}

	var err error
	h.ln, err = net.Listen("tcp", h.Address)
	if err != nil {
		return err
	}

	h.wg.Add(1)
	go h.run()

	return nil
}

// Addr returns the address the handler listens on.
func (h *PortHandler) Addr() net.Addr {
	return h.ln.Addr()
}

// Close closes the listening socket and waits for the accept loop.
// Connection handlers terminate on their own when clients disconnect.
func (h *PortHandler) Close() {
	h.ln.Close()
	h.wg.Wait()
}

func (h *PortHandler) run() {
	defer h.wg.Done()

	for {
		nconn, err := h.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			h.Log.Warn("accept failed", "error", err)
			continue
		}

		go h.handleConn(nconn)
	}
}

func (h *PortHandler) handleConn(nconn net.Conn) {
	defer nconn.Close()

	log := h.Log.With("client", nconn.RemoteAddr().String(), "id", uuid.NewString())
	log.Info("client connected")

	c := conn.NewConn(nconn)

	for {
		req, err := c.ReadRequest()
		if err != nil {
			if isPeerClosed(err) {
				log.Info("client disconnected")
				return
			}

			log.Info("invalid request", "error", err)
			c.WriteResponse(&base.Response{ //nolint:errcheck
				Proto:      base.ProtocolHTTP11,
				StatusCode: base.StatusBadRequest,
			})
			return
		}

		log.Debug("request", "method", req.Method, "url", req.URL)

		err = c.WriteResponse(h.Dispatcher.Dispatch(req))
		if err != nil {
			log.Info("client disconnected", "error", err)
			return
		}
	}
}

func isPeerClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET)
}
