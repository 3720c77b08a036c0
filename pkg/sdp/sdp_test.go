package sdp

import (
	"testing"

	psdp "github.com/pion/sdp/v3"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalNoTiming(t *testing.T) {
	// cameras frequently omit the mandatory t= line
	byts := []byte("v=0\r\n" +
		"o=- 0 0 IN IP4 0.0.0.0\r\n" +
		"s=Cam\r\n" +
		"m=video 0 RTP/AVP 26\r\n" +
		"a=control:trackID=1\r\n" +
		"a=cliprect:0,0,960,1280\r\n" +
		"a=framerate:10\r\n")

	var sd SessionDescription
	err := sd.Unmarshal(byts)
	require.NoError(t, err)

	require.Equal(t, psdp.SessionName("Cam"), sd.SessionName)
	require.Len(t, sd.MediaDescriptions, 1)

	md := sd.MediaDescriptions[0]
	require.Equal(t, "video", md.MediaName.Media)
	require.Equal(t, []string{"RTP", "AVP"}, md.MediaName.Protos)
	require.Equal(t, []string{"26"}, md.MediaName.Formats)

	v, ok := md.Attribute("control")
	require.True(t, ok)
	require.Equal(t, "trackID=1", v)
}

func TestUnmarshalFull(t *testing.T) {
	byts := []byte("v=0\r\n" +
		"o=jdoe 2890844526 2890842807 IN IP4 10.47.16.5\r\n" +
		"s=SDP Seminar\r\n" +
		"i=A Seminar on the session description protocol\r\n" +
		"u=http://www.example.com/seminars/sdp.pdf\r\n" +
		"e=j.doe@example.com (Jane Doe)\r\n" +
		"p=+1 617 555-6011\r\n" +
		"c=IN IP4 224.2.17.12/127\r\n" +
		"b=AS:128\r\n" +
		"t=2873397496 2873404696\r\n" +
		"r=7d 1h 0 25h\r\n" +
		"z=2882844526 -1h\r\n" +
		"a=recvonly\r\n" +
		"m=video 49170 RTP/AVP 26\r\n" +
		"i=video track\r\n" +
		"c=IN IP4 224.2.17.14\r\n" +
		"b=AS:96\r\n" +
		"a=cliprect:0,0,240,320\r\n" +
		"a=framerate:15\r\n")

	var sd SessionDescription
	err := sd.Unmarshal(byts)
	require.NoError(t, err)

	require.Equal(t, "jdoe", sd.Origin.Username)
	require.Equal(t, uint64(2890844526), sd.Origin.SessionID)
	require.NotNil(t, sd.SessionInformation)
	require.NotNil(t, sd.URI)
	require.NotNil(t, sd.EmailAddress)
	require.NotNil(t, sd.PhoneNumber)
	require.NotNil(t, sd.ConnectionInformation)
	require.Len(t, sd.Bandwidth, 1)
	require.Len(t, sd.TimeDescriptions, 1)
	require.Len(t, sd.TimeDescriptions[0].RepeatTimes, 1)
	require.Len(t, sd.Attributes, 1)

	md := sd.MediaDescriptions[0]
	require.NotNil(t, md.MediaTitle)
	require.NotNil(t, md.ConnectionInformation)
	require.Len(t, md.Bandwidth, 1)
	require.Len(t, md.Attributes, 2)
}

func TestUnmarshalUnknownKeysSkipped(t *testing.T) {
	byts := []byte("v=0\r\n" +
		"o=- 1 1 IN IP4 0.0.0.0\r\n" +
		"s=Cam\r\n" +
		"x=not a standard key\r\n" +
		"m=video 0 RTP/AVP 26\r\n" +
		"y=neither is this\r\n" +
		"a=framerate:10\r\n")

	var sd SessionDescription
	err := sd.Unmarshal(byts)
	require.NoError(t, err)
	require.Len(t, sd.MediaDescriptions, 1)
	require.Len(t, sd.MediaDescriptions[0].Attributes, 1)
}

func TestUnmarshalErrors(t *testing.T) {
	for _, ca := range []struct {
		name string
		byts []byte
	}{
		{"invalid line", []byte("v=0\r\nnonsense\r\n")},
		{"invalid version", []byte("v=2\r\n")},
		{"invalid origin", []byte("v=0\r\no=gibberish\r\n")},
		{"short media", []byte("v=0\r\no=- 1 1 IN IP4 0.0.0.0\r\ns=C\r\nm=video 0\r\n")},
	} {
		t.Run(ca.name, func(t *testing.T) {
			var sd SessionDescription
			require.Error(t, sd.Unmarshal(ca.byts))
		})
	}
}
