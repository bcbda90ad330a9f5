package docker

import (
	"bufio"
	"io"

	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// hijackedWriter adapts the hijacked connection's write side to
// io.WriteCloser for the supervisor's stdin feed.
type hijackedWriter struct {
	resp *client.HijackedResponse
}

func (w *hijackedWriter) Write(p []byte) (int, error) {
	return w.resp.Conn.Write(p)
}

func (w *hijackedWriter) Close() error {
	return w.resp.CloseWrite()
}

// demuxReader strips Docker's stdout/stderr multiplexing envelope
// (pkg/stdcopy frame headers) so the transport sees a clean byte stream.
type demuxReader struct {
	src    *bufio.Reader
	closer interface{ Close() }

	pr *io.PipeReader
	pw *io.PipeWriter
}

func (d *demuxReader) ensureStarted() {
	if d.pr != nil {
		return
	}
	d.pr, d.pw = io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(d.pw, d.pw, d.src)
		d.pw.CloseWithError(err)
	}()
}

func (d *demuxReader) Read(p []byte) (int, error) {
	d.ensureStarted()
	return d.pr.Read(p)
}

func (d *demuxReader) Close() error {
	if d.pr != nil {
		_ = d.pr.Close()
	}
	d.closer.Close()
	return nil
}
