// Package ffmpegenc implements the JPEG to H264 encoder contract
// by driving a ffmpeg subprocess through pipes.
package ffmpegenc

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"

	"github.com/Arjentix/Media-Server/pkg/transcode"
)

const auChannelSize = 128

// Encoder is a transcode.Encoder backed by a ffmpeg subprocess.
type Encoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	aus    chan [][]byte
	log    *slog.Logger
	wg     sync.WaitGroup
	mutex  sync.Mutex
	runErr error
}

// New starts the subprocess.
func New(path string, params transcode.Params, log *slog.Logger) (*Encoder, error) {
	params.FillDefaults()

	if log == nil {
		log = slog.Default()
	}

	cmd := exec.Command(path,
		"-hide_banner",
		"-loglevel", "error",
		"-f", "mjpeg",
		"-framerate", strconv.Itoa(params.FPS),
		"-i", "-",
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-tune", "zerolatency",
		"-b:v", strconv.Itoa(params.Bitrate),
		"-bf", "0",
		"-f", "h264",
		"-",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	err = cmd.Start()
	if err != nil {
		return nil, err
	}

	e := &Encoder{
		cmd:   cmd,
		stdin: stdin,
		aus:   make(chan [][]byte, auChannelSize),
		log:   log,
	}

	e.wg.Add(2)
	go e.readStdout(stdout)
	go e.readStderr(stderr)

	return e, nil
}

// Encode implements transcode.Encoder.
// It returns the access units that the subprocess has produced so far.
func (e *Encoder) Encode(jpeg []byte) ([][][]byte, error) {
	_, err := e.stdin.Write(jpeg)
	if err != nil {
		if rerr := e.runError(); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	var out [][][]byte
	for {
		select {
		case au := <-e.aus:
			out = append(out, au)
		default:
			return out, nil
		}
	}
}

// Close stops the subprocess.
func (e *Encoder) Close() error {
	e.stdin.Close()
	err := e.cmd.Wait()
	e.wg.Wait()
	return err
}

func (e *Encoder) runError() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.runErr
}

func (e *Encoder) setRunError(err error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.runErr == nil {
		e.runErr = err
	}
}

// readStdout splits the Annex-B stream into NALUs and groups them
// into access units: every VCL NALU closes the unit it belongs to.
func (e *Encoder) readStdout(r io.Reader) {
	defer e.wg.Done()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 65536), 8*1024*1024)
	sc.Split(splitNALUs)

	var au [][]byte

	for sc.Scan() {
		nalu := append([]byte(nil), sc.Bytes()...)
		if len(nalu) == 0 {
			continue
		}

		au = append(au, nalu)

		typ := h264.NALUType(nalu[0] & 0x1F)
		if typ == h264.NALUTypeIDR || typ == h264.NALUTypeNonIDR {
			e.aus <- au
			au = nil
		}
	}

	if err := sc.Err(); err != nil {
		e.setRunError(fmt.Errorf("reading encoder output: %w", err))
	}
}

func (e *Encoder) readStderr(r io.Reader) {
	defer e.wg.Done()

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		e.log.Warn("encoder", "line", sc.Text())
	}
}

var startCode3 = []byte{0, 0, 1}

// splitNALUs is a bufio.SplitFunc that tokenizes an Annex-B stream.
func splitNALUs(data []byte, atEOF bool) (int, []byte, error) {
	start := bytes.Index(data, startCode3)
	if start == -1 {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}

	next := bytes.Index(data[start+3:], startCode3)
	if next == -1 {
		if atEOF {
			return len(data), trimStartCode(data[start+3:]), nil
		}
		return 0, nil, nil
	}

	end := start + 3 + next
	return end, trimStartCode(data[start+3 : end]), nil
}

// a 4-byte start code leaves a trailing zero before the next 00 00 01
func trimStartCode(nalu []byte) []byte {
	for len(nalu) > 0 && nalu[len(nalu)-1] == 0 {
		nalu = nalu[:len(nalu)-1]
	}
	return nalu
}
