// Package base contains the primitives of the RTSP and HTTP protocols.
package base

// Protocol is the protocol tag of a request or response.
type Protocol string

// supported protocols.
const (
	ProtocolRTSP10 Protocol = "RTSP/1.0"
	ProtocolHTTP10 Protocol = "HTTP/1.0"
	ProtocolHTTP11 Protocol = "HTTP/1.1"
)

func protocolSupported(p Protocol) bool {
	switch p {
	case ProtocolRTSP10, ProtocolHTTP10, ProtocolHTTP11:
		return true
	}
	return false
}

// Method is the method of a request.
type Method string

// RTSP methods.
const (
	Describe Method = "DESCRIBE"
	Options  Method = "OPTIONS"
	Play     Method = "PLAY"
	Setup    Method = "SETUP"
	Teardown Method = "TEARDOWN"
)

// HTTP methods.
const (
	Get  Method = "GET"
	Post Method = "POST"
)
