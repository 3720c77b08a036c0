package jpeg

// StartOfFrame0 is a SOF0 (baseline) marker.
type StartOfFrame0 struct {
	Type                   uint8
	Width                  int
	Height                 int
	QuantizationTableCount uint8
}

// Marshal encodes the marker.
func (m StartOfFrame0) Marshal(buf []byte) []byte {
	buf = append(buf, []byte{0xFF, MarkerStartOfFrame0}...)
	buf = append(buf, []byte{0, 17}...)                               // length
	buf = append(buf, 8)                                              // precision
	buf = append(buf, []byte{byte(m.Height >> 8), byte(m.Height)}...) // height
	buf = append(buf, []byte{byte(m.Width >> 8), byte(m.Width)}...)   // width
	buf = append(buf, 3)                                              // components

	// the Y component is sampled 2:1 for even types, 2:2 for odd ones
	if (m.Type & 0x3F) == 0 { // component 0
		buf = append(buf, []byte{0x00, 0x21, 0}...)
	} else {
		buf = append(buf, []byte{0x00, 0x22, 0}...)
	}

	var secondQuantizationTable byte
	if m.QuantizationTableCount == 2 {
		secondQuantizationTable = 1
	}

	buf = append(buf, []byte{1, 0x11, secondQuantizationTable}...) // component 1
	buf = append(buf, []byte{2, 0x11, secondQuantizationTable}...) // component 2
	return buf
}
