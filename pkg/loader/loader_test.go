package loader_test

import (
	"hash/crc32"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/pkg/loader"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "notes.txt", "Plain text notes.")
	writeFile(t, tmp, "sub/readme.md", "Markdown in a subfolder.")
	writeFile(t, tmp, "data.csv", "unsupported,file")

	l, err := loader.NewWithConfig(loader.LoaderConfig{
		DocsDir: tmp,
		Logger:  discardLogger(),
	})
	require.NoError(t, err)

	docs, err := l.Load()
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byID := make(map[string]string, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc.Content
	}

	assert.Equal(t, "Plain text notes.", byID["notes"])
	assert.Equal(t, "Markdown in a subfolder.", byID["sub__readme"])
}

func TestLoader_ChecksumIsStable(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "notes.txt", "Same content, same checksum.")

	l, err := loader.NewWithConfig(loader.LoaderConfig{
		DocsDir: tmp,
		Logger:  discardLogger(),
	})
	require.NoError(t, err)

	docs, err := l.Load()
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, crc32.ChecksumIEEE([]byte("Same content, same checksum.")), docs[0].Checksum)

	again, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, docs[0].Checksum, again[0].Checksum)
}

func TestLoader_MissingFolder(t *testing.T) {
	_, err := loader.NewWithConfig(loader.LoaderConfig{
		DocsDir: filepath.Join(t.TempDir(), "does-not-exist"),
		Logger:  discardLogger(),
	})
	assert.Error(t, err)
}

func TestLoader_InvalidPDF(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "broken.pdf", "this is not a pdf")

	l, err := loader.NewWithConfig(loader.LoaderConfig{
		DocsDir: tmp,
		Logger:  discardLogger(),
	})
	require.NoError(t, err)

	_, err = l.Load()
	assert.Error(t, err)
}

func TestLoader_LoadOne(t *testing.T) {
	tmp := t.TempDir()
	path := writeFile(t, tmp, "notes.txt", "Loaded directly.")

	l, err := loader.NewWithConfig(loader.LoaderConfig{
		DocsDir: tmp,
		Logger:  discardLogger(),
	})
	require.NoError(t, err)

	doc, err := l.LoadOne(path)
	require.NoError(t, err)
	assert.Equal(t, "notes", doc.ID)
	assert.Equal(t, "Loaded directly.", doc.Content)

	_, err = l.LoadOne(filepath.Join(tmp, "unknown.xyz"))
	assert.Error(t, err)
}

func TestHTMLReader_ReadText(t *testing.T) {
	tmp := t.TempDir()
	path := writeFile(t, tmp, "page.html", `<html>
<head><title>User Guide</title><style>body { color: red; }</style></head>
<body>
  <main><p>Installation   takes two steps.</p></main>
  <script>console.log("noise")</script>
</body>
</html>`)

	r := &loader.HTMLReader{}
	assert.True(t, r.CanRead(path))

	text, err := r.ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "User Guide\nInstallation takes two steps.", text)
}

func TestDocumentID(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{rel: "guide.pdf", want: "guide"},
		{rel: filepath.Join("manuals", "v2", "setup.pdf"), want: "manuals__v2__setup"},
		{rel: "notes.txt", want: "notes"},
		{rel: "release_notes.txt", want: "release_unotes"},
		{rel: "a__b.txt", want: "a_u_ub"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, loader.DocumentID(tt.rel))
	}
}

func TestDocumentID_NoCollisions(t *testing.T) {
	// A subfolder path and a filename containing the separator must map to
	// different ids, or one document's cache entry overwrites the other's
	assert.NotEqual(t,
		loader.DocumentID(filepath.Join("a", "b.txt")),
		loader.DocumentID("a__b.txt"))
	assert.NotEqual(t,
		loader.DocumentID(filepath.Join("a_u", "b.txt")),
		loader.DocumentID(filepath.Join("a", "u__b.txt")))
}
