package base

import (
	"bufio"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

const (
	headerMaxEntryCount  = 255
	headerMaxKeyLength   = 512
	headerMaxValueLength = 2048
)

func headerKeyNormalize(in string) string {
	if strings.ToLower(in) == "cseq" {
		return "CSeq"
	}
	return http.CanonicalHeaderKey(in)
}

// HeaderValue is an header value.
type HeaderValue []string

// Header is a message header, present in both Requests and Responses.
// Keys are normalized on read, making lookups case-insensitive.
type Header map[string]HeaderValue

func (h *Header) unmarshal(rb *bufio.Reader) error {
	*h = make(Header)

	for {
		byt, err := rb.ReadByte()
		if err != nil {
			return err
		}

		if byt == '\r' {
			err := readByteEqual(rb, '\n')
			if err != nil {
				return err
			}

			break
		}

		if len(*h) >= headerMaxEntryCount {
			return fmt.Errorf("headers count exceeds %d", headerMaxEntryCount)
		}

		key := string([]byte{byt})
		byts, err := readBytesLimited(rb, ':', headerMaxKeyLength-1)
		if err != nil {
			return err
		}
		key += string(byts[:len(byts)-1])
		key = headerKeyNormalize(key)

		// the field value may be preceded by any amount of spaces
		for {
			byt, err = rb.ReadByte()
			if err != nil {
				return err
			}

			if byt != ' ' {
				break
			}
		}
		rb.UnreadByte() //nolint:errcheck

		byts, err = readBytesLimited(rb, '\r', headerMaxValueLength)
		if err != nil {
			return err
		}
		val := string(byts[:len(byts)-1])

		err = readByteEqual(rb, '\n')
		if err != nil {
			return err
		}

		(*h)[key] = append((*h)[key], val)
	}

	return nil
}

// Value returns the first value associated with the given key,
// looked up case-insensitively.
func (h Header) Value(key string) (string, bool) {
	vals, ok := h[headerKeyNormalize(key)]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (h Header) marshalSize() int {
	n := 0
	for key, vals := range h {
		for _, val := range vals {
			n += len(key + ": " + val + "\r\n")
		}
	}
	n += 2
	return n
}

func (h Header) marshalTo(buf []byte) int {
	// sort headers by key
	// in order to obtain deterministic results
	keys := make([]string, 0, len(h))
	for key := range h {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pos := 0
	for _, key := range keys {
		for _, val := range h[key] {
			pos += copy(buf[pos:], key+": "+val+"\r\n")
		}
	}
	pos += copy(buf[pos:], "\r\n")
	return pos
}
