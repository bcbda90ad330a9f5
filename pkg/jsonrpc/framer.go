package jsonrpc

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/vibetool/vibetool/pkg/vterrors"
)

var errClassification = vterrors.New(vterrors.Transport, "message satisfies none of request/response/notification")

// Reader yields Message values from a line-delimited byte stream. A line
// that fails to parse or fails classification is logged and dropped;
// reading resumes at the next line. A partial trailing line with no
// terminating \n is retained until more bytes arrive or EOF.
type Reader struct {
	scanner *bufio.Scanner
	log     *logrus.Entry
}

// NewReader wraps r, growing the scan buffer to accommodate arbitrarily
// long single-line JSON-RPC payloads.
func NewReader(r io.Reader, log *logrus.Entry) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{scanner: scanner, log: log}
}

// Next returns the next well-formed, well-classified Message, skipping and
// logging any malformed lines in between. It returns io.EOF when the
// underlying stream is exhausted.
func (r *Reader) Next() (*Message, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			if r.log != nil {
				r.log.WithError(err).WithField("line", string(line)).Warn("dropping malformed JSON-RPC line")
			}
			continue
		}
		if err := Classify(&m); err != nil {
			if r.log != nil {
				r.log.WithField("line", string(line)).Warn("dropping unclassifiable JSON-RPC message")
			}
			continue
		}
		return &m, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, vterrors.Wrap(err, vterrors.Transport, "reading JSON-RPC stream")
	}
	return nil, io.EOF
}

// Writer serializes Message values as line-delimited JSON, flushing after
// each write.
type Writer struct {
	w   *bufio.Writer
	raw io.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), raw: w}
}

// Write serializes m and appends exactly one \n, flushing immediately.
func (w *Writer) Write(m *Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return vterrors.Wrap(err, vterrors.Transport, "encoding JSON-RPC message")
	}
	if _, err := w.w.Write(data); err != nil {
		return vterrors.Wrap(err, vterrors.Transport, "writing JSON-RPC message")
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return vterrors.Wrap(err, vterrors.Transport, "writing JSON-RPC message")
	}
	if err := w.w.Flush(); err != nil {
		return vterrors.Wrap(err, vterrors.Transport, "flushing JSON-RPC message")
	}
	return nil
}
