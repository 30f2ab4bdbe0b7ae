package loader

import (
	"fmt"
	"hash/crc32"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pdfchat/internal/models"
)

// Reader extracts plain text from one kind of file.
type Reader interface {
	CanRead(path string) bool
	ReadText(path string) (string, error)
}

type LoaderConfig struct {
	DocsDir string
	Readers []Reader
	Logger  *slog.Logger
}

type Loader struct {
	config LoaderConfig
}

func NewWithConfig(config LoaderConfig) (*Loader, error) {
	if config.DocsDir == "" {
		return nil, fmt.Errorf("documents directory is required")
	}
	if len(config.Readers) == 0 {
		config.Readers = DefaultReaders()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	info, err := os.Stat(config.DocsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open documents directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", config.DocsDir)
	}

	return &Loader{config: config}, nil
}

// DefaultReaders covers every file type the loader understands out of the box.
func DefaultReaders() []Reader {
	return []Reader{
		&PDFReader{},
		&TextReader{},
		&HTMLReader{},
	}
}

// Load walks the documents directory and extracts text from every supported
// file. Files with no matching reader are skipped with a warning.
func (l *Loader) Load() ([]models.Document, error) {
	var docs []models.Document

	err := filepath.Walk(l.config.DocsDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		reader := l.findReader(path)
		if reader == nil {
			l.config.Logger.Warn("skipping unsupported file", "path", path)
			return nil
		}

		text, err := reader.ReadText(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		doc, err := l.newDocument(path, text)
		if err != nil {
			return err
		}
		docs = append(docs, doc)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// LoadOne extracts a single file, bypassing the directory walk. Used by the
// watcher to re-ingest just the file that changed.
func (l *Loader) LoadOne(path string) (models.Document, error) {
	reader := l.findReader(path)
	if reader == nil {
		return models.Document{}, fmt.Errorf("no reader for file type: %s", filepath.Ext(path))
	}

	text, err := reader.ReadText(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return l.newDocument(path, text)
}

// Supported reports whether any reader handles the given path.
func (l *Loader) Supported(path string) bool {
	return l.findReader(path) != nil
}

func (l *Loader) newDocument(path, text string) (models.Document, error) {
	rel, err := filepath.Rel(l.config.DocsDir, path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	return models.Document{
		ID:       DocumentID(rel),
		Path:     path,
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Content:  text,
		Checksum: crc32.ChecksumIEEE([]byte(text)),
	}, nil
}

func (l *Loader) findReader(path string) Reader {
	for _, r := range l.config.Readers {
		if r.CanRead(path) {
			return r
		}
	}
	return nil
}

// DocumentID turns a path relative to the docs dir into a stable identifier
// that is safe to use as a cache file name. Literal underscores are escaped
// before the separator mapping so distinct paths never share an id
// ("a/b" and "a__b" must not collide).
func DocumentID(rel string) string {
	id := strings.TrimSuffix(rel, filepath.Ext(rel))
	id = filepath.ToSlash(id)
	id = strings.ReplaceAll(id, "_", "_u")
	return strings.ReplaceAll(id, "/", "__")
}
