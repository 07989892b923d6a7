package archive

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/folio/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
	var _ Storage = (*S3Storage)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	data := []byte("test data")

	require.NoError(t, fs.Write(ctx, "test/file.txt", data))

	got, err := fs.Read(ctx, "test/file.txt")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestLocalFS_RejectsEscapingPaths(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, fs.Write(ctx, "../outside.txt", []byte("x")))
	_, err = fs.Read(ctx, "a/../../etc/passwd")
	assert.Error(t, err)
}

func TestLocalFS_ExistsListDelete(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	exists, err := fs.Exists(ctx, "nonexistent.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fs.Write(ctx, "data/2024/01/b.txt", []byte("b")))
	require.NoError(t, fs.Write(ctx, "data/2024/01/a.txt", []byte("a")))
	require.NoError(t, fs.Write(ctx, "data/2024/02/c.txt", []byte("c")))

	paths, err := fs.List(ctx, "data/2024/01")
	require.NoError(t, err)
	assert.Equal(t, []string{"data/2024/01/a.txt", "data/2024/01/b.txt"}, paths)

	paths, err = fs.List(ctx, "nothing/here")
	require.NoError(t, err)
	assert.Empty(t, paths)

	require.NoError(t, fs.Delete(ctx, "data/2024/02/c.txt"))
	exists, err = fs.Exists(ctx, "data/2024/02/c.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNewLocalFS_RequiresPath(t *testing.T) {
	_, err := NewLocalFS("")
	assert.Error(t, err)
}

func TestS3Storage_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "file.txt", "file.txt"},
		{"archive", "file.txt", "archive/file.txt"},
		{"archive/", "file.txt", "archive/file.txt"},
		{"/folio/prod/", "valuations/x.json", "folio/prod/valuations/x.json"},
	}

	for _, tt := range tests {
		s, err := NewS3(S3Config{Bucket: "b", Region: "us-east-1", Prefix: tt.prefix})
		require.NoError(t, err)
		got := s.key(tt.path)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.path, s.relative(got))
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(S3Config{})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	st, err := New(Config{Type: TypeLocalFS, Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalFS{}, st)

	st, err = New(Config{Type: TypeS3, S3: S3Config{Bucket: "folio", Endpoint: "http://localhost:9000", Region: "us-east-1"}})
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, st)

	_, err = New(Config{Type: "gcs"})
	assert.Error(t, err)
}

func TestSnapshotPath(t *testing.T) {
	at := time.Date(2024, 6, 21, 23, 30, 0, 0, time.FixedZone("ART", -3*3600))
	assert.Equal(t, "valuations/2024-06-22/abc.json", SnapshotPath(KindValuation, at, "abc"))
}

func TestArchiver_SaveLoad(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	a := NewArchiver(fs)
	a.now = func() time.Time { return time.Date(2024, 6, 21, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	type payload struct {
		TotalValue float64 `json:"total_value"`
	}

	p, err := a.Save(ctx, KindValuation, payload{TotalValue: 1500})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "valuations/2024-06-21/"))
	assert.True(t, strings.HasSuffix(p, ".json"))

	paths, err := a.List(ctx, KindValuation, a.now())
	require.NoError(t, err)
	assert.Equal(t, []string{p}, paths)

	var got payload
	snap, err := a.Load(ctx, p, &got)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, got.TotalValue)
	assert.Equal(t, KindValuation, snap.Kind)
	assert.NotEmpty(t, snap.ID)
	assert.True(t, a.now().Equal(snap.TakenAt))
}

func TestArchiver_LoadMissing(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	_, err = NewArchiver(fs).Load(context.Background(), "valuations/2024-01-01/none.json", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrArchiveFailed))
}

type failingStore struct{ Storage }

func (failingStore) Write(ctx context.Context, path string, data []byte) error {
	return errors.New("disk full")
}

func TestArchiver_SaveError(t *testing.T) {
	_, err := NewArchiver(failingStore{}).Save(context.Background(), KindAnalysis, map[string]int{"a": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrArchiveFailed))
	assert.Contains(t, err.Error(), "disk full")
}
