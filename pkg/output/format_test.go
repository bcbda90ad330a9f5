package output

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	scenarios := []struct {
		in       string
		expected []string
	}{
		{"", []string{}},
		{"\n", []string{}},
		{"hello world !\nhello universe !\n", []string{"hello world !", "hello universe !"}},
	}
	for _, s := range scenarios {
		assert.EqualValues(t, s.expected, SplitLines(s.in))
	}
}

func TestWithPadding(t *testing.T) {
	scenarios := []struct {
		str      string
		padding  int
		expected string
	}{
		{"hello world !", 1, "hello world !"},
		{"hello world !", 14, "hello world ! "},
	}
	for _, s := range scenarios {
		assert.EqualValues(t, s.expected, WithPadding(s.str, s.padding))
	}
}

func TestDecolorise(t *testing.T) {
	assert.Equal(t, "plain", Decolorise("\x1b[32mplain\x1b[0m"))
}

func TestFormatBinaryBytes(t *testing.T) {
	assert.Equal(t, "0B", FormatBinaryBytes(0))
	assert.Equal(t, "1.00kiB", FormatBinaryBytes(1024))
}

func TestFormatMapEmpty(t *testing.T) {
	assert.Equal(t, "none\n", FormatMap(2, map[string]string{}))
}

type failCloser struct{ err error }

func (f failCloser) Close() error { return f.err }

func TestCloseManyAggregatesErrors(t *testing.T) {
	err := CloseMany([]io.Closer{failCloser{nil}, failCloser{errors.New("boom")}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
