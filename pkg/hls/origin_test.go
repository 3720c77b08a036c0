package hls

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Arjentix/Media-Server/pkg/base"
	"github.com/Arjentix/Media-Server/pkg/pipeline"
)

func testOrigin(t *testing.T, segments int) *Origin {
	o := &Origin{
		ChunkCount:      3,
		SegmentDuration: 2,
	}
	require.NoError(t, o.Initialize())

	for i := 1; i <= segments; i++ {
		require.NoError(t, o.Feed(pipeline.TSSegment{
			MediaSequence: uint64(i),
			Duration:      2,
			Payload:       []byte{0x47, byte(i)},
		}))
	}

	return o
}

func TestPlaylist(t *testing.T) {
	o := testOrigin(t, 5)

	res, err := o.Handle(&base.Request{
		Method: base.Get,
		URL:    "/playlist.m3u",
		Proto:  base.ProtocolHTTP11,
	})
	require.NoError(t, err)
	require.Equal(t, base.StatusOK, res.StatusCode)

	pl := string(res.Body)
	require.True(t, strings.HasPrefix(pl, "#EXTM3U\r\n"))
	require.Contains(t, pl, "#EXT-X-VERSION:3\r\n")
	require.Contains(t, pl, "#EXT-X-TARGETDURATION:2\r\n")
	require.Contains(t, pl, "#EXT-X-MEDIA-SEQUENCE:3\r\n")
	require.Equal(t, 3, strings.Count(pl, "#EXTINF:"))
	require.Contains(t, pl, "/chunk3.ts\r\n")
	require.Contains(t, pl, "/chunk4.ts\r\n")
	require.Contains(t, pl, "/chunk5.ts\r\n")
	require.NotContains(t, pl, "/chunk2.ts")
}

func TestPlaylistPartialWindow(t *testing.T) {
	o := testOrigin(t, 1)

	res, err := o.Handle(&base.Request{
		Method: base.Get,
		URL:    "/playlist.m3u",
		Proto:  base.ProtocolHTTP11,
	})
	require.NoError(t, err)

	pl := string(res.Body)
	require.Contains(t, pl, "#EXT-X-MEDIA-SEQUENCE:1\r\n")
	require.Equal(t, 1, strings.Count(pl, "#EXTINF:"))
}

func TestChunkWindow(t *testing.T) {
	o := testOrigin(t, 5)

	for _, ca := range []struct {
		msn    int
		status base.StatusCode
	}{
		{1, base.StatusNotFound}, // evicted
		{2, base.StatusOK},       // cached one generation back
		{3, base.StatusOK},
		{4, base.StatusOK},
		{5, base.StatusOK},
		{6, base.StatusNotFound}, // not produced yet
	} {
		t.Run(strconv.Itoa(ca.msn), func(t *testing.T) {
			res, err := o.Handle(&base.Request{
				Method: base.Get,
				URL:    "/chunk" + strconv.Itoa(ca.msn) + ".ts",
				Proto:  base.ProtocolHTTP11,
			})
			require.NoError(t, err)
			require.Equal(t, ca.status, res.StatusCode)

			if ca.status == base.StatusOK {
				require.Equal(t, []byte{0x47, byte(ca.msn)}, res.Body)

				// Content-Length must match the body
				byts, err := res.Marshal()
				require.NoError(t, err)
				require.Contains(t, string(byts),
					"Content-Length: "+strconv.Itoa(len(res.Body))+"\r\n")
			}
		})
	}
}

func TestMethodAndPathGating(t *testing.T) {
	o := testOrigin(t, 5)

	res, err := o.Handle(&base.Request{
		Method: base.Post,
		URL:    "/playlist.m3u",
		Proto:  base.ProtocolHTTP11,
	})
	require.NoError(t, err)
	require.Equal(t, base.StatusNotImplemented, res.StatusCode)

	res, err = o.Handle(&base.Request{
		Method: base.Get,
		URL:    "/foo",
		Proto:  base.ProtocolHTTP11,
	})
	require.NoError(t, err)
	require.Equal(t, base.StatusNotFound, res.StatusCode)
}
