package base

import (
	"bufio"
	"fmt"
	"strconv"
)

const (
	requestMaxMethodLength   = 64
	requestMaxURLLength      = 2048
	requestMaxProtocolLength = 64
)

// Request is a RTSP or HTTP request.
type Request struct {
	// request method
	Method Method

	// request URL
	URL string

	// protocol tag (RTSP/1.0, HTTP/1.0 or HTTP/1.1)
	Proto Protocol

	// map of header values
	Header Header

	// optional body
	Body []byte
}

// Unmarshal reads a request.
func (req *Request) Unmarshal(rb *bufio.Reader) error {
	byts, err := readBytesLimited(rb, ' ', requestMaxMethodLength)
	if err != nil {
		return err
	}
	req.Method = Method(byts[:len(byts)-1])

	if req.Method == "" {
		return fmt.Errorf("empty method")
	}

	byts, err = readBytesLimited(rb, ' ', requestMaxURLLength)
	if err != nil {
		return err
	}
	req.URL = string(byts[:len(byts)-1])

	if req.URL == "" {
		return fmt.Errorf("empty URL")
	}

	byts, err = readBytesLimited(rb, '\r', requestMaxProtocolLength)
	if err != nil {
		return err
	}
	req.Proto = Protocol(byts[:len(byts)-1])

	if !protocolSupported(req.Proto) {
		return fmt.Errorf("unsupported protocol '%s'", req.Proto)
	}

	err = readByteEqual(rb, '\n')
	if err != nil {
		return err
	}

	err = req.Header.unmarshal(rb)
	if err != nil {
		return err
	}

	err = (*body)(&req.Body).unmarshal(req.Header, rb)
	if err != nil {
		return err
	}

	return nil
}

func (req Request) marshalSize() int {
	n := len(string(req.Method) + " " + req.URL + " " + string(req.Proto) + "\r\n")

	if len(req.Body) != 0 {
		req.Header["Content-Length"] = HeaderValue{strconv.FormatInt(int64(len(req.Body)), 10)}
	}

	n += req.Header.marshalSize()
	n += body(req.Body).marshalSize()
	return n
}

// Marshal writes a request.
func (req Request) Marshal() ([]byte, error) {
	if req.Proto == "" {
		req.Proto = ProtocolRTSP10
	}

	if req.Header == nil {
		req.Header = make(Header)
	}

	if len(req.Body) != 0 {
		req.Header["Content-Length"] = HeaderValue{strconv.FormatInt(int64(len(req.Body)), 10)}
	}

	buf := make([]byte, req.marshalSize())
	pos := 0

	pos += copy(buf[pos:], string(req.Method)+" "+req.URL+" "+string(req.Proto)+"\r\n")
	pos += req.Header.marshalTo(buf[pos:])
	pos += body(req.Body).marshalTo(buf[pos:])

	return buf[:pos], nil
}

// String implements fmt.Stringer.
func (req Request) String() string {
	buf, _ := req.Marshal()
	return string(buf)
}
