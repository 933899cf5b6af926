package frontmatter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoHeader_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	header, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, header)
	require.Equal(t, input, body)
}

func TestSplit_YAMLHeader_SplitsHeaderAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\n---\n# Title\n")

	header, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Hello\n"), header)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\ntitle: Hello\n# Title\n")

	_, _, had, err := Split(input)
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsHeaderAndBody(t *testing.T) {
	input := []byte("---\r\ntitle: Hello\r\n---\r\n# Title\r\n")

	header, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Hello\r\n"), header)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyHeaderBlock(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	header, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, header)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestParse_TypedFields(t *testing.T) {
	header := []byte("title: Hello\ndate: 2024-05-01\ntags:\n  - test\n  - blog\ndraft: true\nauthor: someone\n")

	meta, err := Parse(header)
	require.NoError(t, err)
	require.Equal(t, "Hello", meta.Title)
	require.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), meta.Date)
	require.Equal(t, []string{"test", "blog"}, meta.Tags)
	require.True(t, meta.Draft)
	require.Equal(t, "someone", meta.Extra["author"])
}

func TestParse_RFC3339Date(t *testing.T) {
	meta, err := Parse([]byte("date: 2024-05-01T10:30:00Z\n"))
	require.NoError(t, err)
	require.Equal(t, 10, meta.Date.Hour())
}

func TestParse_EmptyHeader(t *testing.T) {
	meta, err := Parse(nil)
	require.NoError(t, err)
	require.Empty(t, meta.Title)
	require.True(t, meta.Date.IsZero())
}

func TestParse_BadTags(t *testing.T) {
	_, err := Parse([]byte("tags: nope\n"))
	require.Error(t, err)

	_, err = Parse([]byte("tags:\n  - 1\n"))
	require.Error(t, err)
}

func TestParse_BadDate(t *testing.T) {
	_, err := Parse([]byte("date: not-a-date\n"))
	require.Error(t, err)
}

func TestParse_BadTitleType(t *testing.T) {
	_, err := Parse([]byte("title: [a, b]\n"))
	require.Error(t, err)
}
