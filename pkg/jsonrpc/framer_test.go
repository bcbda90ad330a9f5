package jsonrpc

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationTotality(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		want string
	}{
		{"request", Message{JSONRPC: "2.0", ID: json.RawMessage(`"1"`), Method: "initialize"}, "request"},
		{"response", Message{JSONRPC: "2.0", ID: json.RawMessage(`"1"`), Result: json.RawMessage(`{}`)}, "response"},
		{"error response", Message{JSONRPC: "2.0", ID: json.RawMessage(`"1"`), Error: &RPCError{Code: -1, Message: "x"}}, "response"},
		{"notification", Message{JSONRPC: "2.0", Method: "notifications/initialized"}, "notification"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n := 0
			if c.msg.IsRequest() {
				n++
				assert.Equal(t, "request", c.want)
			}
			if c.msg.IsResponse() {
				n++
				assert.Equal(t, "response", c.want)
			}
			if c.msg.IsNotification() {
				n++
				assert.Equal(t, "notification", c.want)
			}
			assert.Equal(t, 1, n)
			assert.NoError(t, Classify(&c.msg))
		})
	}
}

func TestClassifyRejectsMalformed(t *testing.T) {
	// no id, no method: none of the three shapes
	m := Message{JSONRPC: "2.0"}
	assert.Error(t, Classify(&m))
}

func TestReaderDropsMalformedLines(t *testing.T) {
	input := "not json\n" + `{"jsonrpc":"2.0"}` + "\n" + `{"jsonrpc":"2.0","id":"1","method":"ping"}` + "\n"
	r := NewReader(strings.NewReader(input), nil)
	msg, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "ping", msg.Method)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriterAppendsNewlineAndFlushes(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	msg := &Message{JSONRPC: "2.0", ID: json.RawMessage(`"1"`), Method: "ping"}
	require.NoError(t, w.Write(msg))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	original := &Message{JSONRPC: "2.0", ID: json.RawMessage(`42`), Method: "ping", Params: json.RawMessage(`{"a":1}`)}
	require.NoError(t, w.Write(original))

	r := NewReader(&buf, nil)
	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, original.Method, got.Method)
	assert.JSONEq(t, string(original.ID), string(got.ID))
	assert.JSONEq(t, string(original.Params), string(got.Params))
}

func TestIDStringHandlesStringAndNumber(t *testing.T) {
	m := Message{ID: json.RawMessage(`"abc"`)}
	assert.Equal(t, "abc", m.IDString())

	m2 := Message{ID: json.RawMessage(`7`)}
	assert.Equal(t, "7", m2.IDString())
}
