package tailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createLog(t *testing.T, content string) (string, *os.File) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eqlog_Tester_test.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return path, f
}

func appendString(t *testing.T, f *os.File, s string) {
	t.Helper()
	_, err := f.WriteString(s)
	require.NoError(t, err)
	require.NoError(t, f.Sync())
}

func receiveLine(t *testing.T, tl *Tailer) Line {
	t.Helper()
	select {
	case l, ok := <-tl.Lines():
		require.True(t, ok, "lines channel closed")
		return l
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for line")
	}
	return Line{}
}

func expectNoLine(t *testing.T, tl *Tailer, wait time.Duration) {
	t.Helper()
	select {
	case l := <-tl.Lines():
		t.Fatalf("unexpected line %+v", l)
	case <-time.After(wait):
	}
}

func TestTailer_SkipsHistory(t *testing.T) {
	history := "[Thu Jan 01 00:00:00 2024] old line\n"
	path, f := createLog(t, history)

	tl, err := New(context.Background(), path, Config{Poll: true})
	require.NoError(t, err)
	defer tl.Stop()

	expectNoLine(t, tl, 400*time.Millisecond)

	appendString(t, f, "new line\n")
	l := receiveLine(t, tl)
	assert.Equal(t, "new line", l.Text)
	assert.Equal(t, int64(len(history)+len("new line\n")), l.Offset)
	assert.Equal(t, l.Offset, tl.Offset())
}

func TestTailer_HoldsPartialLine(t *testing.T) {
	path, f := createLog(t, "")

	tl, err := New(context.Background(), path, Config{Poll: true})
	require.NoError(t, err)
	defer tl.Stop()

	appendString(t, f, "first\nsec")
	assert.Equal(t, "first", receiveLine(t, tl).Text)
	expectNoLine(t, tl, 600*time.Millisecond)
	assert.Equal(t, int64(len("first\n")), tl.Offset())

	appendString(t, f, "ond\r\nthird\n")
	assert.Equal(t, "second", receiveLine(t, tl).Text)
	third := receiveLine(t, tl)
	assert.Equal(t, "third", third.Text)
	assert.Equal(t, int64(len("first\nsecond\r\nthird\n")), third.Offset)
}

func TestTailer_DeliversInOrderExactlyOnce(t *testing.T) {
	path, f := createLog(t, "")

	tl, err := New(context.Background(), path, DefaultConfig())
	require.NoError(t, err)
	defer tl.Stop()

	want := []string{"one", "two", "three", "four", "five"}
	for _, s := range want {
		appendString(t, f, s+"\n")
	}

	var got []string
	for range want {
		got = append(got, receiveLine(t, tl).Text)
	}
	assert.Equal(t, want, got)
	expectNoLine(t, tl, 300*time.Millisecond)
}

func TestTailer_WriteRightAfterNew(t *testing.T) {
	for _, poll := range []bool{false, true} {
		history := "old\n"
		path, f := createLog(t, history)

		tl, err := New(context.Background(), path, Config{Poll: poll})
		require.NoError(t, err)
		assert.Equal(t, int64(len(history)), tl.Offset())

		appendString(t, f, "a\nb-part")
		appendString(t, f, "-end\n")

		first := receiveLine(t, tl)
		assert.Equal(t, "a", first.Text)
		assert.Equal(t, int64(len(history)+len("a\n")), first.Offset)
		assert.Equal(t, "b-part-end", receiveLine(t, tl).Text)
		require.NoError(t, tl.Stop())
	}
}

func TestTailer_ResumeAtOffset(t *testing.T) {
	path, _ := createLog(t, "skip me\nkeep me\n")

	tl, err := New(context.Background(), path, Config{Offset: int64(len("skip me\n")), Poll: true})
	require.NoError(t, err)
	defer tl.Stop()

	assert.Equal(t, "keep me", receiveLine(t, tl).Text)
}

func TestTailer_FromStart(t *testing.T) {
	path, _ := createLog(t, "a\nb\n")

	tl, err := New(context.Background(), path, Config{FromStart: true, Poll: true})
	require.NoError(t, err)
	defer tl.Stop()

	assert.Equal(t, "a", receiveLine(t, tl).Text)
	assert.Equal(t, "b", receiveLine(t, tl).Text)
}

func TestTailer_MissingFile(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "eqlog_missing.txt"), DefaultConfig())
	require.Error(t, err)
}

func TestTailer_StopClosesLines(t *testing.T) {
	path, f := createLog(t, "")

	tl, err := New(context.Background(), path, Config{Poll: true})
	require.NoError(t, err)

	require.NoError(t, tl.Stop())
	require.NoError(t, tl.Stop())

	appendString(t, f, "after stop\n")
	_, ok := <-tl.Lines()
	assert.False(t, ok)
	assert.NoError(t, tl.Err())
}

func TestTailer_ContextCancel(t *testing.T) {
	path, f := createLog(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	tl, err := New(ctx, path, Config{Poll: true})
	require.NoError(t, err)

	// An unread line must not keep the tailer alive.
	appendString(t, f, "pending\n")
	time.Sleep(400 * time.Millisecond)
	cancel()

	select {
	case <-tl.done:
	case <-time.After(3 * time.Second):
		t.Fatal("tailer did not exit after cancel")
	}
}
