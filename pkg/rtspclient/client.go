// Package rtspclient contains a RTSP 1.0 client that pulls a single
// video stream over UDP.
package rtspclient

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/Arjentix/Media-Server/pkg/base"
	"github.com/Arjentix/Media-Server/pkg/conn"
	"github.com/Arjentix/Media-Server/pkg/description"
	"github.com/Arjentix/Media-Server/pkg/headers"
	"github.com/Arjentix/Media-Server/pkg/rtpreorderer"
)

const (
	defaultPort        = 554
	defaultReadTimeout = 10 * time.Second
	defaultUserAgent   = "Media-Server"
	udpMaxPayloadSize  = 2048

	minUDPPort = 10000
	maxUDPPort = 65000
)

var requiredMethods = []base.Method{
	base.Describe, base.Setup, base.Play, base.Teardown,
}

type clientState int

const (
	stateInitial clientState = iota
	stateConnected
	stateOptionsOK
	stateDescribed
	stateSetUp
	statePlaying
	stateClosed
)

// String implements fmt.Stringer.
func (s clientState) String() string {
	switch s {
	case stateInitial:
		return "initial"
	case stateConnected:
		return "connected"
	case stateOptionsOK:
		return "optionsOK"
	case stateDescribed:
		return "described"
	case stateSetUp:
		return "setUp"
	case statePlaying:
		return "playing"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// Client is a RTSP client.
// After Start, the session is driven with Options, Describe, Setup
// and Play, in this order.
type Client struct {
	// URL of the stream, in the form rtsp://host[:port][/path].
	URL string

	// timeout of read and write operations.
	// It defaults to 10 seconds.
	ReadTimeout time.Duration

	// User-Agent header sent with every request.
	UserAgent string

	Log *slog.Logger

	// OnPacketRTP is called for every received RTP packet,
	// restored in sequence order.
	OnPacketRTP func(*rtp.Packet)

	// OnTransportError is called when the media receiver exits
	// with an error.
	OnTransportError func(error)

	state    clientState
	nconn    net.Conn
	conn     *conn.Conn
	cseq     int
	session  string
	video    *description.Video
	rtpConn  *net.UDPConn
	rtcpConn *net.UDPConn
	readerWG sync.WaitGroup
}

// Start connects to the server.
func (c *Client) Start() error {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}
	if c.OnPacketRTP == nil {
		c.OnPacketRTP = func(*rtp.Packet) {}
	}
	if c.OnTransportError == nil {
		c.OnTransportError = func(error) {}
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return ErrTransport{Err: err}
	}
	if u.Scheme != "rtsp" {
		return ErrTransport{Err: fmt.Errorf("unsupported scheme '%s'", u.Scheme)}
	}

	port := defaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return ErrTransport{Err: fmt.Errorf("invalid port '%s'", p)}
		}
	}

	nconn, err := net.DialTimeout("tcp4",
		net.JoinHostPort(u.Hostname(), strconv.Itoa(port)), c.ReadTimeout)
	if err != nil {
		return ErrTransport{Err: err}
	}

	c.nconn = nconn
	c.conn = conn.NewConn(nconn)
	c.state = stateConnected

	return nil
}

// Close tears the session down and releases all resources.
func (c *Client) Close() {
	if c.state == stateClosed {
		return
	}

	if c.state == statePlaying || c.state == stateSetUp {
		// best-effort: the server releases the session on its own timeout anyway
		err := c.teardown()
		if err != nil {
			c.Log.Warn("TEARDOWN failed", "error", err)
		}
	}

	if c.rtpConn != nil {
		c.rtpConn.Close()
	}
	if c.rtcpConn != nil {
		c.rtcpConn.Close()
	}
	c.readerWG.Wait()

	if c.nconn != nil {
		c.nconn.Close()
	}

	c.state = stateClosed
}

func (c *Client) checkState(allowed map[clientState]struct{}) error {
	if _, ok := allowed[c.state]; ok {
		return nil
	}

	allowedList := make([]fmt.Stringer, len(allowed))
	i := 0
	for a := range allowed {
		allowedList[i] = a
		i++
	}

	return ErrWrongState{AllowedList: allowedList, State: c.state}
}

func (c *Client) do(req *base.Request) (*base.Response, error) {
	if req.Header == nil {
		req.Header = make(base.Header)
	}

	c.cseq++
	req.Header["CSeq"] = base.HeaderValue{strconv.Itoa(c.cseq)}
	req.Header["User-Agent"] = base.HeaderValue{c.UserAgent}

	if c.session != "" {
		req.Header["Session"] = base.HeaderValue{c.session}
	}

	c.nconn.SetWriteDeadline(time.Now().Add(c.ReadTimeout)) //nolint:errcheck
	err := c.conn.WriteRequest(req)
	if err != nil {
		return nil, ErrTransport{Err: err}
	}

	c.nconn.SetReadDeadline(time.Now().Add(c.ReadTimeout)) //nolint:errcheck
	res, err := c.conn.ReadResponse()
	if err != nil {
		return nil, ErrTransport{Err: err}
	}

	return res, nil
}

// Options sends an OPTIONS request and checks that the methods
// needed to consume the stream are available.
func (c *Client) Options() error {
	err := c.checkState(map[clientState]struct{}{
		stateConnected: {},
	})
	if err != nil {
		return err
	}

	res, err := c.do(&base.Request{
		Method: base.Options,
		URL:    c.URL,
	})
	if err != nil {
		return err
	}

	if res.StatusCode != base.StatusOK {
		return ErrWrongStatusCode{Code: res.StatusCode, Message: res.StatusMessage}
	}

	public, _ := res.Header.Value("Public")
	for _, method := range requiredMethods {
		if !publicContains(public, method) {
			return ErrMethodNotSupported{Method: method}
		}
	}

	c.state = stateOptionsOK

	return nil
}

func publicContains(public string, method base.Method) bool {
	for _, m := range strings.Split(public, ",") {
		if base.Method(strings.TrimSpace(m)) == method {
			return true
		}
	}
	return false
}

// Describe sends a DESCRIBE request and extracts the video
// parameters from the SDP in the response.
func (c *Client) Describe() (*description.Video, error) {
	err := c.checkState(map[clientState]struct{}{
		stateOptionsOK: {},
	})
	if err != nil {
		return nil, err
	}

	res, err := c.do(&base.Request{
		Method: base.Describe,
		URL:    c.URL,
		Header: base.Header{
			"Accept": base.HeaderValue{"application/sdp"},
		},
	})
	if err != nil {
		return nil, err
	}

	if res.StatusCode != base.StatusOK {
		return nil, ErrWrongStatusCode{Code: res.StatusCode, Message: res.StatusMessage}
	}

	video, err := description.ParseVideo(res.Body, c.URL)
	if err != nil {
		return nil, err
	}

	c.video = video
	c.state = stateDescribed

	return video, nil
}

// Setup opens a local UDP port pair and sends a SETUP request
// for the video sub-stream.
func (c *Client) Setup() error {
	err := c.checkState(map[clientState]struct{}{
		stateDescribed: {},
	})
	if err != nil {
		return err
	}

	err = c.openUDPPair()
	if err != nil {
		return ErrTransport{Err: err}
	}

	rtpPort := c.rtpConn.LocalAddr().(*net.UDPAddr).Port
	delivery := headers.DeliveryUnicast

	res, err := c.do(&base.Request{
		Method: base.Setup,
		URL:    c.video.URL,
		Header: base.Header{
			"Transport": headers.Transport{
				Delivery:    &delivery,
				ClientPorts: &[2]int{rtpPort, rtpPort + 1},
			}.Marshal(),
		},
	})
	if err != nil {
		return err
	}

	if res.StatusCode != base.StatusOK {
		return ErrWrongStatusCode{Code: res.StatusCode, Message: res.StatusMessage}
	}

	var th headers.Transport
	err = th.Unmarshal(res.Header["Transport"])
	if err != nil {
		return ErrTransportHeaderInvalid{Err: err}
	}

	var sh headers.Session
	if _, ok := res.Header.Value("Session"); !ok {
		return ErrSessionHeaderMissing{}
	}
	err = sh.Unmarshal(res.Header["Session"])
	if err != nil {
		return ErrSessionHeaderMissing{}
	}

	c.session = sh.Session
	c.state = stateSetUp

	return nil
}

// rtp and rtcp ports must be consecutive, with the rtp one even
func (c *Client) openUDPPair() error {
	for i := 0; i < 64; i++ {
		rtpPort := minUDPPort + 2*rand.IntN((maxUDPPort-minUDPPort)/2)

		rtpConn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: rtpPort})
		if err != nil {
			continue
		}

		rtcpConn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: rtpPort + 1})
		if err != nil {
			rtpConn.Close()
			continue
		}

		c.rtpConn = rtpConn
		c.rtcpConn = rtcpConn
		return nil
	}

	return fmt.Errorf("unable to open an UDP port pair")
}

// Play sends a PLAY request and starts the media receiver.
func (c *Client) Play() error {
	err := c.checkState(map[clientState]struct{}{
		stateSetUp: {},
	})
	if err != nil {
		return err
	}

	res, err := c.do(&base.Request{
		Method: base.Play,
		URL:    c.URL,
		Header: base.Header{
			"Range": base.HeaderValue{"npt=0.000-"},
		},
	})
	if err != nil {
		return err
	}

	if res.StatusCode != base.StatusOK {
		return ErrWrongStatusCode{Code: res.StatusCode, Message: res.StatusMessage}
	}

	c.readerWG.Add(2)
	go c.runRTPReader()
	go c.runRTCPReader()

	c.state = statePlaying

	return nil
}

func (c *Client) teardown() error {
	res, err := c.do(&base.Request{
		Method: base.Teardown,
		URL:    c.URL,
	})
	if err != nil {
		return err
	}

	if res.StatusCode != base.StatusOK {
		return ErrWrongStatusCode{Code: res.StatusCode, Message: res.StatusMessage}
	}

	return nil
}

func (c *Client) runRTPReader() {
	defer c.readerWG.Done()

	reorderer := rtpreorderer.New()

	for {
		buf := make([]byte, udpMaxPayloadSize)

		c.rtpConn.SetReadDeadline(time.Now().Add(c.ReadTimeout)) //nolint:errcheck
		n, _, err := c.rtpConn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				c.OnTransportError(ErrTransport{Err: err})
			}
			return
		}

		var pkt rtp.Packet
		err = pkt.Unmarshal(buf[:n])
		if err != nil {
			c.Log.Warn("invalid RTP packet", "error", err)
			continue
		}

		pkts, lost := reorderer.Process(&pkt)
		if lost != 0 {
			c.Log.Warn("RTP packets lost", "count", lost)
		}

		for _, p := range pkts {
			c.OnPacketRTP(p)
		}
	}
}

// incoming RTCP reports are decoded and discarded, in order to keep
// the socket buffer empty.
func (c *Client) runRTCPReader() {
	defer c.readerWG.Done()

	buf := make([]byte, udpMaxPayloadSize)

	for {
		n, _, err := c.rtcpConn.ReadFrom(buf)
		if err != nil {
			return
		}

		packets, err := rtcp.Unmarshal(buf[:n])
		if err != nil {
			c.Log.Warn("invalid RTCP packet", "error", err)
			continue
		}

		c.Log.Debug("RTCP report received", "packets", len(packets))
	}
}
