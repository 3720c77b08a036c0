// Package transcode contains the contract between the media pipeline
// and an external JPEG to H264 encoder.
package transcode

import (
	"github.com/Arjentix/Media-Server/pkg/pipeline"
)

const rtpClockRate = 90000

// DefaultBitrate is the encoder bitrate used when Params.Bitrate is zero.
const DefaultBitrate = 2_000_000

// Params are the encoder parameters.
type Params struct {
	Width   int
	Height  int
	FPS     int
	Bitrate int // bits per second
}

// FillDefaults fills unset parameters with default values.
func (p *Params) FillDefaults() {
	if p.Bitrate == 0 {
		p.Bitrate = DefaultBitrate
	}
}

// Encoder is a JPEG to H264 encoder.
// An implementation may buffer internally: one Encode call can return
// zero or more access units, in decoding order.
type Encoder interface {
	Encode(jpeg []byte) ([][][]byte, error)
	Close() error
}

// Stage adapts an Encoder to the pipeline, stamping each emitted
// access unit with timestamps derived from a frame counter.
type Stage struct {
	Encoder Encoder
	FPS     int

	// Out receives the encoded frames.
	Out pipeline.Notifier[pipeline.H264Frame]

	frameIndex int64
}

// Feed implements pipeline.Sink.
func (s *Stage) Feed(frame pipeline.JPEGFrame) error {
	aus, err := s.Encoder.Encode(frame)
	if err != nil {
		return err
	}

	for _, au := range aus {
		ts := s.frameIndex * rtpClockRate / int64(s.FPS)
		s.frameIndex++

		err := s.Out.Notify(pipeline.H264Frame{
			AU:  au,
			PTS: ts,
			DTS: ts,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Close closes the underlying encoder.
func (s *Stage) Close() error {
	return s.Encoder.Close()
}
