package rtspclient

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"

	"github.com/Arjentix/Media-Server/pkg/base"
	"github.com/Arjentix/Media-Server/pkg/conn"
	"github.com/Arjentix/Media-Server/pkg/headers"
)

var testSDP = []byte("v=0\r\n" +
	"o=- 0 0 IN IP4 127.0.0.1\r\n" +
	"s=Stream\r\n" +
	"m=video 0 RTP/AVP 26\r\n" +
	"a=control:trackID=1\r\n" +
	"a=cliprect:0,0,960,1280\r\n" +
	"a=framerate:10.0\r\n")

func readRequestCSeq(t *testing.T, c *conn.Conn) (*base.Request, int) {
	req, err := c.ReadRequest()
	require.NoError(t, err)

	v, ok := req.Header.Value("CSeq")
	require.True(t, ok)
	cseq, err := strconv.Atoi(v)
	require.NoError(t, err)

	return req, cseq
}

func writeResponse(t *testing.T, c *conn.Conn, cseq int, res *base.Response) {
	if res.Header == nil {
		res.Header = make(base.Header)
	}
	res.Header["CSeq"] = base.HeaderValue{strconv.Itoa(cseq)}
	require.NoError(t, c.WriteResponse(res))
}

func TestClientSession(t *testing.T) {
	ln, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer ln.Close()

	cseqs := make(chan int, 8)
	serverDone := make(chan struct{})

	go func() {
		defer close(serverDone)

		nconn, err2 := ln.Accept()
		require.NoError(t, err2)
		defer nconn.Close()
		c := conn.NewConn(nconn)

		req, cseq := readRequestCSeq(t, c)
		cseqs <- cseq
		require.Equal(t, base.Options, req.Method)
		writeResponse(t, c, cseq, &base.Response{
			StatusCode: base.StatusOK,
			Header: base.Header{
				"Public": base.HeaderValue{"OPTIONS, DESCRIBE, SETUP, PLAY, TEARDOWN"},
			},
		})

		req, cseq = readRequestCSeq(t, c)
		cseqs <- cseq
		require.Equal(t, base.Describe, req.Method)
		accept, _ := req.Header.Value("accept")
		require.Equal(t, "application/sdp", accept)
		writeResponse(t, c, cseq, &base.Response{
			StatusCode: base.StatusOK,
			Header: base.Header{
				"Content-Type": base.HeaderValue{"application/sdp"},
			},
			Body: testSDP,
		})

		req, cseq = readRequestCSeq(t, c)
		cseqs <- cseq
		require.Equal(t, base.Setup, req.Method)
		require.True(t, len(req.URL) > len("/trackID=1"))
		require.Equal(t, "/trackID=1", req.URL[len(req.URL)-len("/trackID=1"):])

		var th headers.Transport
		require.NoError(t, th.Unmarshal(req.Header["Transport"]))
		require.NotNil(t, th.ClientPorts)
		require.Zero(t, th.ClientPorts[0]%2)
		require.Equal(t, th.ClientPorts[0]+1, th.ClientPorts[1])

		writeResponse(t, c, cseq, &base.Response{
			StatusCode: base.StatusOK,
			Header: base.Header{
				"Transport": base.HeaderValue{
					"RTP/AVP;unicast;client_port=" +
						strconv.Itoa(th.ClientPorts[0]) + "-" + strconv.Itoa(th.ClientPorts[1]) +
						";server_port=34556-34557",
				},
				"Session": base.HeaderValue{"12345678"},
			},
		})

		req, cseq = readRequestCSeq(t, c)
		cseqs <- cseq
		require.Equal(t, base.Play, req.Method)
		session, _ := req.Header.Value("session")
		require.Equal(t, "12345678", session)
		rang, _ := req.Header.Value("Range")
		require.Equal(t, "npt=0.000-", rang)
		writeResponse(t, c, cseq, &base.Response{StatusCode: base.StatusOK})

		// send a RTP packet to the negotiated port
		uconn, err2 := net.Dial("udp4", "127.0.0.1:"+strconv.Itoa(th.ClientPorts[0]))
		require.NoError(t, err2)
		defer uconn.Close()

		byts, err2 := (&rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    26,
				SequenceNumber: 100,
			},
			Payload: []byte{0x01, 0x02},
		}).Marshal()
		require.NoError(t, err2)
		_, err2 = uconn.Write(byts)
		require.NoError(t, err2)

		req, cseq = readRequestCSeq(t, c)
		cseqs <- cseq
		require.Equal(t, base.Teardown, req.Method)
		writeResponse(t, c, cseq, &base.Response{StatusCode: base.StatusOK})
	}()

	packetReceived := make(chan *rtp.Packet, 1)

	c := &Client{
		URL: "rtsp://" + ln.Addr().String() + "/stream",
		OnPacketRTP: func(pkt *rtp.Packet) {
			select {
			case packetReceived <- pkt:
			default:
			}
		},
	}

	require.NoError(t, c.Start())
	defer c.Close()

	require.NoError(t, c.Options())

	video, err := c.Describe()
	require.NoError(t, err)
	require.Equal(t, 1280, video.Width)
	require.Equal(t, 960, video.Height)
	require.Equal(t, 10, video.FPS)

	require.NoError(t, c.Setup())
	require.NoError(t, c.Play())

	select {
	case pkt := <-packetReceived:
		require.Equal(t, uint16(100), pkt.SequenceNumber)
	case <-time.After(2 * time.Second):
		t.Fatal("RTP packet not received")
	}

	c.Close()
	<-serverDone

	// CSeq values form a strictly increasing sequence starting at 1
	close(cseqs)
	expected := 1
	for cseq := range cseqs {
		require.Equal(t, expected, cseq)
		expected++
	}
	require.Equal(t, 6, expected)
}

func TestOptionsWithoutPublic(t *testing.T) {
	ln, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		nconn, err2 := ln.Accept()
		if err2 != nil {
			return
		}
		defer nconn.Close()
		c := conn.NewConn(nconn)

		_, cseq := readRequestCSeq(t, c)
		writeResponse(t, c, cseq, &base.Response{StatusCode: base.StatusOK})
	}()

	c := &Client{URL: "rtsp://" + ln.Addr().String() + "/stream"}
	require.NoError(t, c.Start())
	defer c.Close()

	err = c.Options()
	require.Equal(t, ErrMethodNotSupported{Method: base.Describe}, err)
}

func TestDescribeWrongStatusCode(t *testing.T) {
	ln, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		nconn, err2 := ln.Accept()
		if err2 != nil {
			return
		}
		defer nconn.Close()
		c := conn.NewConn(nconn)

		_, cseq := readRequestCSeq(t, c)
		writeResponse(t, c, cseq, &base.Response{
			StatusCode: base.StatusOK,
			Header: base.Header{
				"Public": base.HeaderValue{"DESCRIBE, SETUP, PLAY, TEARDOWN"},
			},
		})

		_, cseq = readRequestCSeq(t, c)
		writeResponse(t, c, cseq, &base.Response{StatusCode: base.StatusNotFound})
	}()

	c := &Client{URL: "rtsp://" + ln.Addr().String() + "/stream"}
	require.NoError(t, c.Start())
	defer c.Close()

	require.NoError(t, c.Options())

	_, err = c.Describe()
	require.Equal(t, ErrWrongStatusCode{Code: base.StatusNotFound, Message: "Not Found"}, err)
}

func TestWrongState(t *testing.T) {
	ln, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer ln.Close()

	c := &Client{URL: "rtsp://" + ln.Addr().String() + "/stream"}
	require.NoError(t, c.Start())
	defer c.Close()

	err = c.Play()
	var wrongState ErrWrongState
	require.ErrorAs(t, err, &wrongState)
}
