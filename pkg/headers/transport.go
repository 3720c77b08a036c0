// Package headers contains RTSP header codecs.
package headers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Arjentix/Media-Server/pkg/base"
)

// Delivery is a delivery method.
type Delivery int

// delivery methods.
const (
	DeliveryUnicast Delivery = iota
	DeliveryMulticast
)

// Transport is a Transport header.
type Transport struct {
	// delivery method
	Delivery *Delivery

	// client ports
	ClientPorts *[2]int

	// server ports
	ServerPorts *[2]int
}

func parsePorts(val string) (*[2]int, error) {
	ports := strings.Split(val, "-")
	if len(ports) == 2 {
		port1, err := strconv.ParseInt(ports[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ports (%v)", val)
		}

		port2, err := strconv.ParseInt(ports[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ports (%v)", val)
		}

		return &[2]int{int(port1), int(port2)}, nil
	}

	if len(ports) == 1 {
		port1, err := strconv.ParseInt(ports[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ports (%v)", val)
		}

		return &[2]int{int(port1), int(port1 + 1)}, nil
	}

	return nil, fmt.Errorf("invalid ports (%v)", val)
}

// Unmarshal decodes a Transport header.
func (h *Transport) Unmarshal(v base.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}

	if len(v) > 1 {
		return fmt.Errorf("value provided multiple times (%v)", v)
	}

	parts := strings.Split(v[0], ";")

	if parts[0] != "RTP/AVP" && parts[0] != "RTP/AVP/UDP" {
		return fmt.Errorf("invalid protocol (%v)", v)
	}
	parts = parts[1:]

	for _, part := range parts {
		switch {
		case part == "unicast":
			de := DeliveryUnicast
			h.Delivery = &de

		case part == "multicast":
			de := DeliveryMulticast
			h.Delivery = &de

		case strings.HasPrefix(part, "client_port="):
			ports, err := parsePorts(part[len("client_port="):])
			if err != nil {
				return err
			}
			h.ClientPorts = ports

		case strings.HasPrefix(part, "server_port="):
			ports, err := parsePorts(part[len("server_port="):])
			if err != nil {
				return err
			}
			h.ServerPorts = ports

		default:
			// ignore unknown parameters
		}
	}

	return nil
}

// Marshal encodes a Transport header.
func (h Transport) Marshal() base.HeaderValue {
	val := "RTP/AVP"

	if h.Delivery != nil {
		if *h.Delivery == DeliveryUnicast {
			val += ";unicast"
		} else {
			val += ";multicast"
		}
	}

	if h.ClientPorts != nil {
		val += ";client_port=" + strconv.Itoa(h.ClientPorts[0]) +
			"-" + strconv.Itoa(h.ClientPorts[1])
	}

	if h.ServerPorts != nil {
		val += ";server_port=" + strconv.Itoa(h.ServerPorts[0]) +
			"-" + strconv.Itoa(h.ServerPorts[1])
	}

	return base.HeaderValue{val}
}
