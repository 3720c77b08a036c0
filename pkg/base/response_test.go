package base

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

var casesResponse = []struct {
	name string
	byts []byte
	res  Response
}{
	{
		"rtsp ok",
		[]byte("RTSP/1.0 200 OK\r\n" +
			"CSeq: 1\r\n" +
			"Public: DESCRIBE, SETUP, PLAY, TEARDOWN\r\n" +
			"\r\n"),
		Response{
			Proto:         ProtocolRTSP10,
			StatusCode:    StatusOK,
			StatusMessage: "OK",
			Header: Header{
				"CSeq":   HeaderValue{"1"},
				"Public": HeaderValue{"DESCRIBE, SETUP, PLAY, TEARDOWN"},
			},
		},
	},
	{
		"http with body",
		[]byte("HTTP/1.0 200 OK\r\n" +
			"Content-Length: 7\r\n" +
			"\r\n" +
			"#EXTM3U"),
		Response{
			Proto:         ProtocolHTTP10,
			StatusCode:    StatusOK,
			StatusMessage: "OK",
			Header: Header{
				"Content-Length": HeaderValue{"7"},
			},
			Body: []byte("#EXTM3U"),
		},
	},
}

func TestResponseUnmarshal(t *testing.T) {
	for _, ca := range casesResponse {
		t.Run(ca.name, func(t *testing.T) {
			var res Response
			err := res.Unmarshal(bufio.NewReader(bytes.NewBuffer(ca.byts)))
			require.NoError(t, err)
			require.Equal(t, ca.res, res)
		})
	}
}

func TestResponseMarshal(t *testing.T) {
	for _, ca := range casesResponse {
		t.Run(ca.name, func(t *testing.T) {
			byts, err := ca.res.Marshal()
			require.NoError(t, err)
			require.Equal(t, ca.byts, byts)
		})
	}
}

func TestResponseStatusMessageFilled(t *testing.T) {
	byts, err := Response{
		Proto:      ProtocolHTTP10,
		StatusCode: StatusNotImplemented,
	}.Marshal()
	require.NoError(t, err)
	require.Equal(t, []byte("HTTP/1.0 501 Not Implemented\r\n\r\n"), byts)
}

func TestHeaderCaseInsensitiveLookup(t *testing.T) {
	byts := []byte("HTTP/1.0 200 OK\r\n" +
		"content-length: 2\r\n" +
		"\r\n" +
		"ab")

	var res Response
	err := res.Unmarshal(bufio.NewReader(bytes.NewBuffer(byts)))
	require.NoError(t, err)

	v, ok := res.Header.Value("Content-Length")
	require.True(t, ok)
	require.Equal(t, "2", v)

	v, ok = res.Header.Value("CONTENT-LENGTH")
	require.True(t, ok)
	require.Equal(t, "2", v)
	require.Equal(t, []byte("ab"), res.Body)
}
