// Package rtpmjpeg contains a RTP/M-JPEG decoder conforming to RFC 2435.
package rtpmjpeg

const (
	rtpClockRate = 90000
	maxDimension = 2040
)
