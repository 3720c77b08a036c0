// Package headers contains RTP/M-JPEG payload headers.
package headers
