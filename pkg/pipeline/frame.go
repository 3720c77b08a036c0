package pipeline

// JPEGFrame is a complete JPEG image.
type JPEGFrame []byte

// H264Frame is a H264 access unit with its presentation
// and decoding timestamps, in 90 kHz units.
type H264Frame struct {
	AU  [][]byte
	PTS int64
	DTS int64
}

// TSSegment is a complete MPEG-TS segment.
type TSSegment struct {
	MediaSequence uint64
	Duration      float64
	Payload       []byte
}
