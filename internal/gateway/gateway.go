// Package gateway wires the media pipeline: RTSP client, MJPEG
// depacketizer, H264 transcoder, MPEG-TS segmenter and HLS origin.
package gateway

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/pion/rtp"

	"github.com/Arjentix/Media-Server/internal/ffmpegenc"
	"github.com/Arjentix/Media-Server/pkg/formats/rtpmjpeg"
	"github.com/Arjentix/Media-Server/pkg/hls"
	"github.com/Arjentix/Media-Server/pkg/pipeline"
	"github.com/Arjentix/Media-Server/pkg/porthandler"
	"github.com/Arjentix/Media-Server/pkg/rtspclient"
	"github.com/Arjentix/Media-Server/pkg/segmenter"
	"github.com/Arjentix/Media-Server/pkg/transcode"
)

// Gateway pulls a MJPEG stream over RTSP and serves it as HLS.
type Gateway struct {
	StreamURL string
	Config    *Config
	Log       *slog.Logger

	// NewEncoder builds the JPEG to H264 encoder.
	// It defaults to a ffmpeg subprocess.
	NewEncoder func(params transcode.Params) (transcode.Encoder, error)

	client  *rtspclient.Client
	stage   *transcode.Stage
	manager *porthandler.Manager
	fatal   chan error
}

// Start connects to the upstream server and starts all the
// pipeline stages.
func (g *Gateway) Start() error {
	if g.Config == nil {
		g.Config = DefaultConfig()
	}
	if g.Log == nil {
		g.Log = slog.Default()
	}
	if g.NewEncoder == nil {
		g.NewEncoder = func(params transcode.Params) (transcode.Encoder, error) {
			return ffmpegenc.New(g.Config.Encoder.FFmpegPath, params, g.Log)
		}
	}

	g.fatal = make(chan error, 1)

	g.client = &rtspclient.Client{
		URL: g.StreamURL,
		Log: g.Log,
		OnTransportError: func(err error) {
			g.setFatal(err)
		},
	}

	err := g.client.Start()
	if err != nil {
		return err
	}

	err = g.client.Options()
	if err != nil {
		g.client.Close()
		return err
	}

	video, err := g.client.Describe()
	if err != nil {
		g.client.Close()
		return err
	}

	g.Log.Info("video stream found",
		"url", video.URL,
		"width", video.Width,
		"height", video.Height,
		"fps", video.FPS)

	enc, err := g.NewEncoder(transcode.Params{
		Width:   video.Width,
		Height:  video.Height,
		FPS:     video.FPS,
		Bitrate: g.Config.Encoder.Bitrate,
	})
	if err != nil {
		g.client.Close()
		return err
	}

	g.stage = &transcode.Stage{
		Encoder: enc,
		FPS:     video.FPS,
	}

	seg := &segmenter.Segmenter{
		FPS:             video.FPS,
		SegmentDuration: g.Config.HLS.ChunkDuration,
	}
	err = seg.Initialize()
	if err != nil {
		g.closePipeline()
		return err
	}

	origin := &hls.Origin{
		ChunkCount:      g.Config.HLS.ChunkCount,
		SegmentDuration: g.Config.HLS.ChunkDuration,
	}
	err = origin.Initialize()
	if err != nil {
		g.closePipeline()
		return err
	}

	g.stage.Out.Subscribe(seg)
	seg.Out.Subscribe(origin)

	decoder := &rtpmjpeg.Decoder{}
	decoder.Init()
	g.client.OnPacketRTP = func(pkt *rtp.Packet) {
		g.handlePacket(decoder, pkt)
	}

	err = g.client.Setup()
	if err != nil {
		g.closePipeline()
		return err
	}

	err = g.client.Play()
	if err != nil {
		g.closePipeline()
		return err
	}

	var dispatcher porthandler.Dispatcher
	dispatcher.Register("/", origin)

	g.manager = &porthandler.Manager{Log: g.Log}
	g.manager.AddHandler(":"+strconv.Itoa(g.Config.HTTP.Port), &dispatcher)

	err = g.manager.Start()
	if err != nil {
		g.closePipeline()
		return err
	}

	g.Log.Info("serving HLS", "port", g.Config.HTTP.Port)

	return nil
}

// FatalError returns a channel that receives the first
// unrecoverable pipeline error.
func (g *Gateway) FatalError() <-chan error {
	return g.fatal
}

// Close tears everything down, upstream session included.
func (g *Gateway) Close() {
	if g.manager != nil {
		g.manager.Close()
	}
	g.closePipeline()
}

func (g *Gateway) closePipeline() {
	g.client.Close()
	if g.stage != nil {
		err := g.stage.Close()
		if err != nil {
			g.Log.Warn("encoder shutdown failed", "error", err)
		}
	}
}

func (g *Gateway) handlePacket(decoder *rtpmjpeg.Decoder, pkt *rtp.Packet) {
	frame, err := decoder.Decode(pkt)
	if err != nil {
		// invalid packets are dropped, the stream continues
		if !errors.Is(err, rtpmjpeg.ErrMorePacketsNeeded) &&
			!errors.Is(err, rtpmjpeg.ErrNonStartingPacketAndNoPrevious) {
			g.Log.Warn("invalid MJPEG packet", "error", err)
		}
		return
	}

	err = g.stage.Feed(pipeline.JPEGFrame(frame))
	if err != nil {
		g.setFatal(err)
	}
}

func (g *Gateway) setFatal(err error) {
	select {
	case g.fatal <- err:
	default:
	}
}
