package base

import (
	"bufio"
	"fmt"
	"strconv"
)

// StatusCode is the status code of a response.
type StatusCode int

// standard status codes.
const (
	StatusOK                   StatusCode = 200
	StatusBadRequest           StatusCode = 400
	StatusUnauthorized         StatusCode = 401
	StatusNotFound             StatusCode = 404
	StatusMethodNotAllowed     StatusCode = 405
	StatusSessionNotFound      StatusCode = 454
	StatusUnsupportedTransport StatusCode = 461
	StatusInternalServerError  StatusCode = 500
	StatusNotImplemented       StatusCode = 501
)

// StatusMessages contains the status messages associated with each status code.
var StatusMessages = map[StatusCode]string{
	StatusOK:                   "OK",
	StatusBadRequest:           "Bad Request",
	StatusUnauthorized:         "Unauthorized",
	StatusNotFound:             "Not Found",
	StatusMethodNotAllowed:     "Method Not Allowed",
	StatusSessionNotFound:      "Session Not Found",
	StatusUnsupportedTransport: "Unsupported Transport",
	StatusInternalServerError:  "Internal Server Error",
	StatusNotImplemented:       "Not Implemented",
}

// Response is a RTSP or HTTP response.
type Response struct {
	// protocol tag (RTSP/1.0, HTTP/1.0 or HTTP/1.1)
	Proto Protocol

	// numeric status code
	StatusCode StatusCode

	// status message
	StatusMessage string

	// map of header values
	Header Header

	// optional body
	Body []byte
}

// Unmarshal reads a response.
func (res *Response) Unmarshal(rb *bufio.Reader) error {
	byts, err := readBytesLimited(rb, ' ', 255)
	if err != nil {
		return err
	}
	res.Proto = Protocol(byts[:len(byts)-1])

	if !protocolSupported(res.Proto) {
		return fmt.Errorf("unsupported protocol '%s'", res.Proto)
	}

	byts, err = readBytesLimited(rb, ' ', 4)
	if err != nil {
		return err
	}
	statusCodeStr := string(byts[:len(byts)-1])

	statusCode64, err := strconv.ParseInt(statusCodeStr, 10, 32)
	if err != nil {
		return fmt.Errorf("unable to parse status code")
	}
	res.StatusCode = StatusCode(statusCode64)

	byts, err = readBytesLimited(rb, '\r', 255)
	if err != nil {
		return err
	}
	res.StatusMessage = string(byts[:len(byts)-1])

	err = readByteEqual(rb, '\n')
	if err != nil {
		return err
	}

	err = res.Header.unmarshal(rb)
	if err != nil {
		return err
	}

	err = (*body)(&res.Body).unmarshal(res.Header, rb)
	if err != nil {
		return err
	}

	return nil
}

func (res Response) marshalSize() int {
	n := len(string(res.Proto) + " " + strconv.FormatInt(int64(res.StatusCode), 10) +
		" " + res.StatusMessage + "\r\n")
	n += res.Header.marshalSize()
	n += body(res.Body).marshalSize()
	return n
}

// Marshal writes a response.
func (res Response) Marshal() ([]byte, error) {
	if res.Proto == "" {
		res.Proto = ProtocolRTSP10
	}

	if res.StatusMessage == "" {
		if status, ok := StatusMessages[res.StatusCode]; ok {
			res.StatusMessage = status
		}
	}

	if res.Header == nil {
		res.Header = make(Header)
	}

	if len(res.Body) != 0 {
		res.Header["Content-Length"] = HeaderValue{strconv.FormatInt(int64(len(res.Body)), 10)}
	}

	buf := make([]byte, res.marshalSize())
	pos := 0

	pos += copy(buf[pos:], string(res.Proto)+" "+
		strconv.FormatInt(int64(res.StatusCode), 10)+" "+res.StatusMessage+"\r\n")
	pos += res.Header.marshalTo(buf[pos:])
	pos += body(res.Body).marshalTo(buf[pos:])

	return buf[:pos], nil
}

// String implements fmt.Stringer.
func (res Response) String() string {
	buf, _ := res.Marshal()
	return string(buf)
}
