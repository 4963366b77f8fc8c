package revlines

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingStream records every seek and read made against a bytes.Reader and
// can be told to fail them.
type countingStream struct {
	r       *bytes.Reader
	seeks   int
	reads   int
	seekErr error
	readErr error
}

func newCountingStream(content string) *countingStream {
	return &countingStream{r: bytes.NewReader([]byte(content))}
}

func (s *countingStream) Seek(offset int64, whence int) (int64, error) {
	if s.seekErr != nil && whence == io.SeekStart {
		return 0, s.seekErr
	}
	s.seeks++
	return s.r.Seek(offset, whence)
}

func (s *countingStream) Read(p []byte) (int, error) {
	if s.readErr != nil {
		return 0, s.readErr
	}
	s.reads++
	return s.r.Read(p)
}

func readAll(t *testing.T, content string, opts ...Option) []string {
	t.Helper()
	r, err := New(strings.NewReader(content), opts...)
	require.NoError(t, err)

	var got []string
	for line, err := range r.All(context.Background()) {
		require.NoError(t, err)
		got = append(got, string(line))
	}
	return got
}

// expectedLines splits content forwards and reverses the result. It is the
// reference the reverse reader is checked against.
func expectedLines(content string) []string {
	if content == "" {
		return nil
	}
	parts := strings.Split(content, "\n")
	trailing := parts[len(parts)-1] == ""
	if trailing {
		parts = parts[:len(parts)-1]
	}
	for i := range parts {
		if i < len(parts)-1 || trailing {
			parts[i] = strings.TrimSuffix(parts[i], "\r")
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

func TestReader_Lines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "empty stream", content: "", want: nil},
		{name: "trailing terminator", content: "a\nb\nc\n", want: []string{"c", "b", "a"}},
		{name: "no trailing terminator", content: "a\nb\nc", want: []string{"c", "b", "a"}},
		{name: "blank line", content: "a\n\nb\n", want: []string{"b", "", "a"}},
		{name: "single line without terminator", content: "ABCD", want: []string{"ABCD"}},
		{name: "only a terminator", content: "\n", want: []string{""}},
		{name: "only terminators", content: "\n\n\n", want: []string{"", "", ""}},
		{name: "leading blank line", content: "\nx\n", want: []string{"x", ""}},
		{name: "trailing blank lines", content: "ABCD\n\nXYZ\n\n\n", want: []string{"", "", "XYZ", "", "ABCD"}},
		{name: "crlf", content: "a\r\nb\r\n", want: []string{"b", "a"}},
		{name: "crlf without trailing terminator", content: "a\r\nb", want: []string{"b", "a"}},
		{name: "only crlf", content: "\r\n", want: []string{""}},
		{name: "mixed endings", content: "a\r\nb\nc\r\n\r\nd", want: []string{"d", "", "c", "b", "a"}},
		{name: "lone cr is content", content: "a\rb\n", want: []string{"a\rb"}},
		{name: "cr before eof is content", content: "a\nb\r", want: []string{"b\r", "a"}},
		{name: "double cr keeps one", content: "x\r\r\n", want: []string{"x\r"}},
		{
			name:    "multi line",
			content: "ABCDEF\nGHIJK\nLMNOPQRST\nUVWXYZ\n",
			want:    []string{"UVWXYZ", "LMNOPQRST", "GHIJK", "ABCDEF"},
		},
	}

	for _, tt := range tests {
		for _, chunk := range []int{1, 2, 3, 5, 8, DefaultChunkSize} {
			got := readAll(t, tt.content, WithChunkSize(chunk))
			assert.Equal(t, tt.want, got, "%s (chunk size %d)", tt.name, chunk)
		}
	}
}

func TestReader_LineLongerThanChunk(t *testing.T) {
	long := strings.Repeat("0123456789", 100)
	content := "first\n" + long + "\nlast\n"

	got := readAll(t, content, WithChunkSize(7))
	require.Equal(t, []string{"last", long, "first"}, got)
}

func TestReader_MatchesForwardSplit(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	alphabet := []byte("ab\r\n\n")

	for i := 0; i < 300; i++ {
		buf := make([]byte, rng.Intn(40))
		for j := range buf {
			buf[j] = alphabet[rng.Intn(len(alphabet))]
		}
		content := string(buf)
		chunk := 1 + rng.Intn(9)

		got := readAll(t, content, WithChunkSize(chunk))
		require.Equal(t, expectedLines(content), got, "content %q chunk %d", content, chunk)
	}
}

func TestReader_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	alphabet := []byte("xyz\n")

	for i := 0; i < 200; i++ {
		buf := make([]byte, rng.Intn(60))
		for j := range buf {
			buf[j] = alphabet[rng.Intn(len(alphabet))]
		}
		content := string(buf)

		got := readAll(t, content, WithChunkSize(1+rng.Intn(6)))

		var sb strings.Builder
		for k := len(got) - 1; k >= 0; k-- {
			sb.WriteString(got[k])
			if k > 0 || strings.HasSuffix(content, "\n") {
				sb.WriteByte('\n')
			}
		}
		require.Equal(t, content, sb.String())
	}
}

func TestReader_Idempotent(t *testing.T) {
	content := "one\ntwo\r\n\nthree\nfour"
	first := readAll(t, content, WithChunkSize(3))
	second := readAll(t, content, WithChunkSize(3))
	assert.Equal(t, first, second)
}

func TestReader_LinesAreOwned(t *testing.T) {
	r, err := New(strings.NewReader("aaa\nbbb\nccc"), WithChunkSize(2))
	require.NoError(t, err)

	ctx := context.Background()
	first, err := r.Next(ctx)
	require.NoError(t, err)
	first[0] = 'X'

	second, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bbb", string(second))
	assert.Equal(t, "Xcc", string(first))
}

func TestReader_NoReadsBeyondWhatIsNeeded(t *testing.T) {
	stream := newCountingStream("aaa\nbbb\nccc\n")
	r, err := New(stream, WithChunkSize(4))
	require.NoError(t, err)
	require.Equal(t, 0, stream.reads)

	line, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ccc", string(line))

	// "ccc\n" alone cannot be resolved, so exactly one more block is needed.
	assert.Equal(t, 2, stream.reads)
	assert.Equal(t, int64(4), r.Offset())
}

func TestReader_BreakStopsReading(t *testing.T) {
	stream := newCountingStream("1\n2\n3\n4\n5\n6\n")
	r, err := New(stream, WithChunkSize(2))
	require.NoError(t, err)

	var got []string
	for line, err := range r.All(context.Background()) {
		require.NoError(t, err)
		got = append(got, string(line))
		if len(got) == 2 {
			break
		}
	}
	reads := stream.reads

	assert.Equal(t, []string{"6", "5"}, got)
	assert.Equal(t, 3, reads)
	assert.Equal(t, reads, stream.reads)
}

func TestReader_ContextCanceled(t *testing.T) {
	stream := newCountingStream("a\nb\n")
	r, err := New(stream)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stream.reads)

	// Cancellation does not end the sequence.
	line, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", string(line))
}

func TestReader_ExhaustedStaysExhausted(t *testing.T) {
	r, err := New(strings.NewReader("x"))
	require.NoError(t, err)

	ctx := context.Background()
	line, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "x", string(line))

	for i := 0; i < 3; i++ {
		_, err = r.Next(ctx)
		assert.Equal(t, io.EOF, err)
	}
}

func TestReader_ReadErrorIsSticky(t *testing.T) {
	boom := errors.New("disk on fire")
	stream := newCountingStream("a\nb\n")
	r, err := New(stream)
	require.NoError(t, err)
	stream.readErr = boom

	_, err = r.Next(context.Background())
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, io.EOF)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "read", ioErr.Op)
	assert.Equal(t, int64(0), ioErr.Offset)

	// Clearing the fault does not revive the sequence.
	stream.readErr = nil
	_, again := r.Next(context.Background())
	assert.Equal(t, err, again)
}

func TestReader_SeekError(t *testing.T) {
	boom := errors.New("bad seek")
	stream := newCountingStream("hello\n")
	r, err := New(stream)
	require.NoError(t, err)
	stream.seekErr = boom

	var got []error
	for _, err := range r.All(context.Background()) {
		got = append(got, err)
	}
	require.Len(t, got, 1)
	require.ErrorIs(t, got[0], ErrIO)
	require.ErrorIs(t, got[0], boom)
}

func TestReader_TruncatedStream(t *testing.T) {
	stream := newCountingStream("abcdef\n")
	r, err := New(stream, WithChunkSize(3))
	require.NoError(t, err)

	// Shrink the data behind the reader's back.
	stream.r = bytes.NewReader([]byte("ab"))

	_, err = r.Next(context.Background())
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotEqual(t, io.EOF, err)
}

type sizeFailure struct{ io.Reader }

func (sizeFailure) Seek(int64, int) (int64, error) {
	return 0, errors.New("no size")
}

func TestNew_SizeError(t *testing.T) {
	_, err := New(sizeFailure{})
	require.ErrorIs(t, err, ErrIO)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "size", ioErr.Op)
}

func TestNew_IgnoresInvalidChunkSize(t *testing.T) {
	r, err := New(strings.NewReader("a\n"), WithChunkSize(0), WithChunkSize(-4))
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, r.chunkSize)
	assert.Equal(t, int64(2), r.Size())
}

func TestReader_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r, err := New(strings.NewReader("aa\nbb\ncc\n"), WithChunkSize(3), WithMetrics(m))
	require.NoError(t, err)
	for _, err := range r.All(context.Background()) {
		require.NoError(t, err)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.blocksRead))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.bytesRead))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.linesEmitted))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.readErrors))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestReader_LogsFetches(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(strings.NewReader("a\nb\n"), WithLogger(log.NewLogfmtLogger(&buf)))
	require.NoError(t, err)
	for _, err := range r.All(context.Background()) {
		require.NoError(t, err)
	}

	out := buf.String()
	assert.Contains(t, out, "reverse reader ready")
	assert.Contains(t, out, "fetched block")
}

func TestLast(t *testing.T) {
	stream := newCountingStream("1\n2\n3\n4\n5\n")

	lines, err := Last(context.Background(), stream, 2, WithChunkSize(2))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "5", string(lines[0]))
	assert.Equal(t, "4", string(lines[1]))
	assert.Equal(t, 3, stream.reads)

	lines, err = Last(context.Background(), strings.NewReader("only\n"), 10)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	lines, err = Last(context.Background(), strings.NewReader("x\n"), 0)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
