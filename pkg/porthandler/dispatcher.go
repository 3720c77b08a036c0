// Package porthandler contains the HTTP serving infrastructure:
// listening ports, per-connection loops and request dispatching.
package porthandler

import (
	"strings"

	"github.com/Arjentix/Media-Server/pkg/base"
)

// Servlet handles a HTTP request.
type Servlet interface {
	Handle(req *base.Request) (*base.Response, error)
}

type dispatcherEntry struct {
	prefix  string
	servlet Servlet
}

// Dispatcher routes requests to servlets by longest URL prefix match.
type Dispatcher struct {
	entries []dispatcherEntry
}

// Register adds a servlet for a URL prefix.
func (d *Dispatcher) Register(prefix string, s Servlet) {
	d.entries = append(d.entries, dispatcherEntry{prefix: prefix, servlet: s})
}

// Dispatch routes a request to the matching servlet.
// Servlet failures are translated into a 500 response, unmatched
// URLs into a 404 one.
func (d *Dispatcher) Dispatch(req *base.Request) *base.Response {
	if !strings.HasPrefix(req.URL, "/") {
		return &base.Response{
			Proto:      req.Proto,
			StatusCode: base.StatusBadRequest,
		}
	}

	var best *dispatcherEntry
	for i := range d.entries {
		e := &d.entries[i]
		if strings.HasPrefix(req.URL, e.prefix) &&
			(best == nil || len(e.prefix) > len(best.prefix)) {
			best = e
		}
	}

	if best == nil {
		return &base.Response{
			Proto:      req.Proto,
			StatusCode: base.StatusNotFound,
		}
	}

	res, err := best.servlet.Handle(req)
	if err != nil {
		return &base.Response{
			Proto:      req.Proto,
			StatusCode: base.StatusInternalServerError,
		}
	}

	if res.Proto == "" {
		res.Proto = req.Proto
	}
	return res
}
