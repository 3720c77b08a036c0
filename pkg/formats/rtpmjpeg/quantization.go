package rtpmjpeg

// table K.1 of ITU-T T.81, used as the luma base table (RFC 2435, appendix A).
var lumBaseTable = [64]int{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

// table K.2 of ITU-T T.81, used as the chroma base table (RFC 2435, appendix A).
var chmBaseTable = [64]int{
	17, 18, 24, 47, 99, 99, 99, 99,
	18, 21, 26, 66, 99, 99, 99, 99,
	24, 26, 56, 99, 99, 99, 99, 99,
	47, 66, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
}

func scaleQuantizationTable(base *[64]int, q int) []byte {
	table := make([]byte, 64)
	for i, entry := range base {
		v := (entry*q + 50) / 100
		if v < 1 {
			v = 1
		} else if v > 255 {
			v = 255
		}
		table[i] = byte(v)
	}
	return table
}

// deriveQuantizationTables computes the luma and chroma quantization tables
// from a Q factor, as described in RFC 2435, appendix A.
func deriveQuantizationTables(quantization uint8) ([]byte, []byte) {
	factor := int(quantization)
	if factor < 1 {
		factor = 1
	} else if factor > 99 {
		factor = 99
	}

	var q int
	if factor < 50 {
		q = 5000 / factor
	} else {
		q = 200 - factor*2
	}

	return scaleQuantizationTable(&lumBaseTable, q),
		scaleQuantizationTable(&chmBaseTable, q)
}
