package eventlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFile_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs", "psp_event_log.txt")

	f, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, f.Append(ctx, "2011-05-14T09:30:15.000000 - code start "))
	require.NoError(t, f.Append(ctx, "2011-05-14T09:30:20.000000 - code resuming phone call"))
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "start \r\n")

	entries, err := ReadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "start", entries[0].Event)
	require.Equal(t, "resuming", entries[1].Event)
	require.Equal(t, "phone call", entries[1].Comment)
}

func TestFile_AppendOnlyAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.txt")

	for _, name := range []string{"start", "stop"} {
		f, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, f.Append(ctx, "2011-05-14T09:30:15.000000 - - "+name+" "))
		require.NoError(t, f.Close())
	}

	entries, err := ReadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "start", entries[0].Event)
	require.Equal(t, "stop", entries[1].Event)
}

func TestFile_AppendAfterClose(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "events.txt"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.ErrorIs(t, f.Append(context.Background(), "x"), os.ErrClosed)
}

func TestTail(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.txt")
	f, err := Open(path)
	require.NoError(t, err)
	for _, name := range []string{"start", "pausing", "resuming", "stop"} {
		require.NoError(t, f.Append(ctx, "2011-05-14T09:30:15.000000 - - "+name+" "))
	}
	require.NoError(t, f.Close())

	entries, err := Tail(path, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "resuming", entries[0].Event)

	entries, err = Tail(filepath.Join(t.TempDir(), "missing.txt"), 5)
	require.NoError(t, err)
	require.Empty(t, entries)
}
