// Package hls contains a HLS origin that serves a sliding
// window of MPEG-TS segments.
package hls

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/Arjentix/Media-Server/pkg/base"
	"github.com/Arjentix/Media-Server/pkg/pipeline"
)

const defaultChunkCount = 3

var chunkPathRegexp = regexp.MustCompile(`^/chunk(\d+)\.ts$`)

// Origin stores the most recent MPEG-TS segments and serves
// them over HTTP as a HLS stream.
//
// It keeps two rings of ChunkCount entries: live, the segments
// advertised by the playlist, and cache, the previous generation,
// still served to clients that hold an old playlist.
type Origin struct {
	ChunkCount      int
	SegmentDuration float64

	mutex sync.Mutex
	live  []pipeline.TSSegment
	cache []pipeline.TSSegment
}

// Initialize initializes an Origin.
func (o *Origin) Initialize() error {
	if o.ChunkCount == 0 {
		o.ChunkCount = defaultChunkCount
	}
	if o.ChunkCount < 1 {
		return fmt.Errorf("invalid chunk count: %d", o.ChunkCount)
	}

	o.live = make([]pipeline.TSSegment, o.ChunkCount)
	o.cache = make([]pipeline.TSSegment, o.ChunkCount)

	return nil
}

// Feed implements pipeline.Sink.
// The oldest live segment moves into the cache ring; the oldest
// cached segment is dropped.
func (o *Origin) Feed(seg pipeline.TSSegment) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	n := o.ChunkCount
	copy(o.cache, o.cache[1:])
	o.cache[n-1] = o.live[0]
	copy(o.live, o.live[1:])
	o.live[n-1] = seg

	return nil
}

// Handle serves a HTTP request.
func (o *Origin) Handle(req *base.Request) (*base.Response, error) {
	if req.Method != base.Get {
		return &base.Response{StatusCode: base.StatusNotImplemented}, nil
	}

	if req.URL == "/playlist.m3u" {
		return o.handlePlaylist(), nil
	}

	if m := chunkPathRegexp.FindStringSubmatch(req.URL); m != nil {
		msn, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return &base.Response{StatusCode: base.StatusBadRequest}, nil
		}
		return o.handleChunk(msn), nil
	}

	return &base.Response{StatusCode: base.StatusNotFound}, nil
}

func (o *Origin) handlePlaylist() *base.Response {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	var b strings.Builder
	b.WriteString("#EXTM3U\r\n")
	b.WriteString("#EXT-X-VERSION:3\r\n")
	b.WriteString("#EXT-X-TARGETDURATION:" +
		strconv.Itoa(int(math.Round(o.SegmentDuration))) + "\r\n")

	first := true
	for _, seg := range o.live {
		if seg.Payload == nil {
			continue
		}

		if first {
			b.WriteString("#EXT-X-MEDIA-SEQUENCE:" +
				strconv.FormatUint(seg.MediaSequence, 10) + "\r\n")
			first = false
		}

		b.WriteString("#EXTINF:" +
			strconv.FormatFloat(seg.Duration, 'f', -1, 64) + ",\r\n")
		b.WriteString("/chunk" + strconv.FormatUint(seg.MediaSequence, 10) + ".ts\r\n")
	}

	return &base.Response{
		StatusCode: base.StatusOK,
		Header: base.Header{
			"Content-Type": base.HeaderValue{"application/vnd.apple.mpegurl"},
		},
		Body: []byte(b.String()),
	}
}

func (o *Origin) handleChunk(msn uint64) *base.Response {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	n := o.ChunkCount

	// segments older than the last evicted one are gone for good
	if msn > o.live[n-1].MediaSequence || msn < o.cache[n-1].MediaSequence {
		return &base.Response{StatusCode: base.StatusNotFound}
	}

	ring := o.cache
	if msn >= o.live[0].MediaSequence {
		ring = o.live
	}

	for _, seg := range ring {
		if seg.Payload != nil && seg.MediaSequence == msn {
			return &base.Response{
				StatusCode: base.StatusOK,
				Header: base.Header{
					"Content-Type": base.HeaderValue{"video/mp2t"},
				},
				Body: seg.Payload,
			}
		}
	}

	return &base.Response{StatusCode: base.StatusNotFound}
}
