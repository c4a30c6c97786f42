package fs_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhublabs/medhub/pkg/medhub"
	"github.com/medhublabs/medhub/pkg/medhub/storage/fs"
)

func newBackend(t *testing.T) medhub.BlobStore {
	t.Helper()

	backend, err := fs.New(fs.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return backend
}

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := fs.New(fs.Config{})
	assert.Error(t, err)
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	backend := newBackend(t)
	ctx := context.Background()

	payload := []byte("lecture recording")
	err := backend.UploadWithParams(ctx, bytes.NewReader(payload), medhub.UploadParams{
		ObjectKey: "video/c/d.mp4",
		MimeType:  "video/mp4",
	})
	require.NoError(t, err)

	reader, err := backend.Download(ctx, "video/c/d.mp4")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	meta, err := backend.GetObjectMeta(ctx, "video/c/d.mp4")
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), meta.Size)
}

func TestDeleteCleansEmptyDirectories(t *testing.T) {
	dir := t.TempDir()
	backend, err := fs.New(fs.Config{BaseDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "journal/a/b.pdf", bytes.NewReader([]byte("x"))))
	require.NoError(t, backend.Delete(ctx, "journal/a/b.pdf"))

	_, err = os.Stat(filepath.Join(dir, "journal"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestRejectsTraversalKeys(t *testing.T) {
	backend := newBackend(t)
	ctx := context.Background()

	err := backend.Upload(ctx, "../escape", bytes.NewReader([]byte("x")))
	assert.Error(t, err)

	_, err = backend.Download(ctx, "../../etc/passwd")
	assert.Error(t, err)
}

func TestDownloadURLRequiresPrefix(t *testing.T) {
	backend := newBackend(t)

	_, err := backend.GetDownloadURL(context.Background(), "key", "file.pdf")
	assert.Error(t, err)
}

func TestURLsWithPrefix(t *testing.T) {
	backend, err := fs.New(fs.Config{BaseDir: t.TempDir(), URLPrefix: "http://localhost:8080/files/"})
	require.NoError(t, err)
	ctx := context.Background()

	url, err := backend.GetDownloadURL(ctx, "journal/a/b.pdf", "paper.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/download/journal/a/b.pdf?filename=paper.pdf", url)

	url, err = backend.GetPreviewURL(ctx, "journal/a/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/preview/journal/a/b.pdf", url)
}
