// Package segmenter contains a H264 to MPEG-TS segmenter.
package segmenter

import (
	"bytes"
	"fmt"
	"math"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"

	"github.com/Arjentix/Media-Server/pkg/pipeline"
)

// Segmenter groups H264 access units into MPEG-TS segments
// of fixed frame count.
type Segmenter struct {
	FPS             int
	SegmentDuration float64

	// Out receives the completed segments.
	Out pipeline.Notifier[pipeline.TSSegment]

	framesPerChunk    int
	chunkFrameCounter int
	mediaSequence     uint64
	sps               []byte
	pps               []byte
	buf               bytes.Buffer
	w                 *mpegts.Writer
	track             *mpegts.Track
	started           bool
}

// Initialize initializes a Segmenter.
func (s *Segmenter) Initialize() error {
	s.framesPerChunk = int(math.Round(float64(s.FPS) * s.SegmentDuration))
	if s.framesPerChunk < 1 {
		return fmt.Errorf("invalid segment duration: %v", s.SegmentDuration)
	}

	s.openMuxer()

	return nil
}

func (s *Segmenter) openMuxer() {
	s.track = &mpegts.Track{
		Codec: &mpegts.CodecH264{},
	}
	s.w = mpegts.NewWriter(&s.buf, []*mpegts.Track{s.track})
}

// Feed implements pipeline.Sink.
func (s *Segmenter) Feed(frame pipeline.H264Frame) error {
	// prepend an AUD. This is required by some players
	filteredAU := [][]byte{
		{byte(h264.NALUTypeAccessUnitDelimiter), 240},
	}

	nonIDRPresent := false
	idrPresent := false

	for _, nalu := range frame.AU {
		typ := h264.NALUType(nalu[0] & 0x1F)
		switch typ {
		case h264.NALUTypeSPS:
			s.sps = nalu
			continue

		case h264.NALUTypePPS:
			s.pps = nalu
			continue

		case h264.NALUTypeAccessUnitDelimiter:
			continue

		case h264.NALUTypeIDR:
			idrPresent = true

		case h264.NALUTypeNonIDR:
			nonIDRPresent = true
		}

		filteredAU = append(filteredAU, nalu)
	}

	au := filteredAU

	if len(au) <= 1 || (!nonIDRPresent && !idrPresent) {
		return nil
	}

	// skip frames silently until we find one with a IDR
	if !s.started {
		if !idrPresent {
			return nil
		}
		s.started = true
	}

	// add SPS and PPS before every access unit that contains an IDR
	if idrPresent && s.sps != nil && s.pps != nil {
		au = append([][]byte{s.sps, s.pps}, au...)
	}

	err := s.w.WriteH264(s.track, frame.PTS, frame.DTS, au)
	if err != nil {
		return err
	}

	s.chunkFrameCounter++
	if s.chunkFrameCounter < s.framesPerChunk {
		return nil
	}

	s.mediaSequence++
	seg := pipeline.TSSegment{
		MediaSequence: s.mediaSequence,
		Duration:      float64(s.chunkFrameCounter) / float64(s.FPS),
		Payload:       append([]byte(nil), s.buf.Bytes()...),
	}

	s.buf.Reset()
	s.chunkFrameCounter = 0
	s.openMuxer()

	return s.Out.Notify(seg)
}
