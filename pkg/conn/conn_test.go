package conn

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Arjentix/Media-Server/pkg/base"
)

type readWriter struct {
	*bytes.Buffer
}

func TestReadRequest(t *testing.T) {
	buf := &readWriter{bytes.NewBuffer(
		[]byte("GET /chunk3.ts HTTP/1.0\r\n\r\n"))}
	c := NewConn(buf)

	req, err := c.ReadRequest()
	require.NoError(t, err)
	require.Equal(t, base.Get, req.Method)
	require.Equal(t, "/chunk3.ts", req.URL)
}

func TestWriteReadResponse(t *testing.T) {
	buf := &readWriter{bytes.NewBuffer(nil)}
	c := NewConn(buf)

	err := c.WriteResponse(&base.Response{
		Proto:      base.ProtocolRTSP10,
		StatusCode: base.StatusOK,
		Header: base.Header{
			"CSeq": base.HeaderValue{"4"},
		},
	})
	require.NoError(t, err)

	res, err := NewConn(buf).ReadResponse()
	require.NoError(t, err)
	require.Equal(t, base.StatusOK, res.StatusCode)
	require.Equal(t, base.HeaderValue{"4"}, res.Header["CSeq"])
}

func TestWriteRequest(t *testing.T) {
	buf := &readWriter{bytes.NewBuffer(nil)}
	c := NewConn(buf)

	err := c.WriteRequest(&base.Request{
		Method: base.Setup,
		URL:    "rtsp://example.com/stream/trackID=1",
		Proto:  base.ProtocolRTSP10,
		Header: base.Header{
			"CSeq":      base.HeaderValue{"3"},
			"Transport": base.HeaderValue{"RTP/AVP;unicast;client_port=35678-35679"},
		},
	})
	require.NoError(t, err)

	req, err := NewConn(buf).ReadRequest()
	require.NoError(t, err)
	require.Equal(t, base.Setup, req.Method)
	require.Equal(t, "RTP/AVP;unicast;client_port=35678-35679",
		req.Header["Transport"][0])
}
