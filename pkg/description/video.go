// Package description extracts stream parameters from SDP session descriptions.
package description

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"

	"github.com/Arjentix/Media-Server/pkg/sdp"
)

// ErrVideoNotFound is returned when the session description
// does not contain a video media.
var ErrVideoNotFound = errors.New("video media not found")

// Video describes the video stream advertised by a DESCRIBE response.
type Video struct {
	// image width in pixels
	Width int

	// image height in pixels
	Height int

	// frames per second
	FPS int

	// absolute control URL of the video track
	URL string
}

func getAttribute(attributes []psdp.Attribute, key string) (string, bool) {
	for _, attr := range attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

func parseClipRect(val string) (int, int, error) {
	// cliprect is x1,y1,x2,y2; width is the last token,
	// height the second-to-last.
	tokens := strings.Split(val, ",")
	if len(tokens) != 4 {
		return 0, 0, fmt.Errorf("invalid cliprect '%s'", val)
	}

	width, err := strconv.Atoi(strings.TrimSpace(tokens[3]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cliprect width '%s'", tokens[3])
	}

	height, err := strconv.Atoi(strings.TrimSpace(tokens[2]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cliprect height '%s'", tokens[2])
	}

	return width, height, nil
}

func parseFramerate(val string) (int, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid framerate '%s'", val)
	}
	return int(math.Round(f)), nil
}

// controlURL joins the control attribute of a media with the base URL.
// Trailing-slash stripping is a plain suffix check.
func controlURL(baseURL string, control string) string {
	if control == "" {
		return baseURL
	}

	if strings.HasPrefix(control, "rtsp://") {
		return control
	}

	baseURL = strings.TrimSuffix(baseURL, "/")
	return baseURL + "/" + strings.TrimPrefix(control, "/")
}

// ParseVideo parses a SDP body and extracts the description of
// the first video media.
func ParseVideo(byts []byte, baseURL string) (*Video, error) {
	var sd sdp.SessionDescription
	err := sd.Unmarshal(byts)
	if err != nil {
		return nil, err
	}

	var media *psdp.MediaDescription
	for _, md := range sd.MediaDescriptions {
		if strings.Contains(md.MediaName.Media, "video") {
			media = md
			break
		}
	}
	if media == nil {
		return nil, ErrVideoNotFound
	}

	cliprect, ok := getAttribute(media.Attributes, "cliprect")
	if !ok {
		return nil, fmt.Errorf("cliprect attribute is missing")
	}

	width, height, err := parseClipRect(cliprect)
	if err != nil {
		return nil, err
	}

	framerate, ok := getAttribute(media.Attributes, "framerate")
	if !ok {
		return nil, fmt.Errorf("framerate attribute is missing")
	}

	fps, err := parseFramerate(framerate)
	if err != nil {
		return nil, err
	}

	v := &Video{
		Width:  width,
		Height: height,
		FPS:    fps,
		URL:    baseURL,
	}

	if control, ok := getAttribute(media.Attributes, "control"); ok {
		v.URL = controlURL(baseURL, control)
	}

	return v, nil
}
