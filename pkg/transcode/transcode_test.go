package transcode

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Arjentix/Media-Server/pkg/pipeline"
)

type scriptedEncoder struct {
	buffered [][]byte
	closed   bool
}

// buffers the first frame and emits two access units on the second,
// simulating encoder latency.
func (e *scriptedEncoder) Encode(jpeg []byte) ([][][]byte, error) {
	e.buffered = append(e.buffered, jpeg)
	if len(e.buffered) < 2 {
		return nil, nil
	}

	var aus [][][]byte
	for _, f := range e.buffered {
		aus = append(aus, [][]byte{f})
	}
	e.buffered = nil
	return aus, nil
}

func (e *scriptedEncoder) Close() error {
	e.closed = true
	return nil
}

func TestStageTimestamps(t *testing.T) {
	st := &Stage{
		Encoder: &scriptedEncoder{},
		FPS:     10,
	}

	var frames []pipeline.H264Frame
	st.Out.Subscribe(pipeline.SinkFunc[pipeline.H264Frame](func(f pipeline.H264Frame) error {
		frames = append(frames, f)
		return nil
	}))

	require.NoError(t, st.Feed(pipeline.JPEGFrame{0x01}))
	require.Empty(t, frames)

	require.NoError(t, st.Feed(pipeline.JPEGFrame{0x02}))
	require.NoError(t, st.Feed(pipeline.JPEGFrame{0x03}))
	require.NoError(t, st.Feed(pipeline.JPEGFrame{0x04}))

	require.Equal(t, []pipeline.H264Frame{
		{AU: [][]byte{{0x01}}, PTS: 0, DTS: 0},
		{AU: [][]byte{{0x02}}, PTS: 9000, DTS: 9000},
		{AU: [][]byte{{0x03}}, PTS: 18000, DTS: 18000},
		{AU: [][]byte{{0x04}}, PTS: 27000, DTS: 27000},
	}, frames)
}

func TestStageEncoderError(t *testing.T) {
	st := &Stage{
		Encoder: failingEncoder{},
		FPS:     10,
	}

	require.EqualError(t, st.Feed(pipeline.JPEGFrame{0x01}), "encoder failed")
}

type failingEncoder struct{}

func (failingEncoder) Encode([]byte) ([][][]byte, error) {
	return nil, fmt.Errorf("encoder failed")
}

func (failingEncoder) Close() error {
	return nil
}

func TestStageClose(t *testing.T) {
	enc := &scriptedEncoder{}
	st := &Stage{Encoder: enc, FPS: 10}

	require.NoError(t, st.Close())
	require.True(t, enc.closed)
}

func TestParamsFillDefaults(t *testing.T) {
	p := Params{Width: 1280, Height: 960, FPS: 10}
	p.FillDefaults()
	require.Equal(t, DefaultBitrate, p.Bitrate)

	p = Params{Bitrate: 500_000}
	p.FillDefaults()
	require.Equal(t, 500_000, p.Bitrate)
}
