package headers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Arjentix/Media-Server/pkg/base"
)

// Session is a Session header.
type Session struct {
	// session id
	Session string

	// (optional) a timeout
	Timeout *uint
}

// Unmarshal decodes a Session header.
func (h *Session) Unmarshal(v base.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}

	if len(v) > 1 {
		return fmt.Errorf("value provided multiple times (%v)", v)
	}

	parts := strings.Split(v[0], ";")

	h.Session = parts[0]

	if h.Session == "" {
		return fmt.Errorf("empty session id")
	}

	for _, part := range parts[1:] {
		part = strings.TrimLeft(part, " ")

		keyval := strings.SplitN(part, "=", 2)
		if len(keyval) != 2 {
			return fmt.Errorf("invalid value")
		}

		if keyval[0] == "timeout" {
			iv, err := strconv.ParseUint(keyval[1], 10, 64)
			if err != nil {
				return err
			}
			uiv := uint(iv)
			h.Timeout = &uiv
		}
	}

	return nil
}

// Marshal encodes a Session header.
func (h Session) Marshal() base.HeaderValue {
	val := h.Session

	if h.Timeout != nil {
		val += ";timeout=" + strconv.FormatUint(uint64(*h.Timeout), 10)
	}

	return base.HeaderValue{val}
}
