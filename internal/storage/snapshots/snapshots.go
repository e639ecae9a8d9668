package snapshots

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BearBump/vasptrack/internal/models"
	"github.com/pkg/errors"
)

const DefaultDir = "snapshots"

// ErrWrite marks an unusable snapshot location. It is fatal for a batch.
var ErrWrite = errors.New("snapshot write failure")

// Store keeps one <code>.json and one <code>.html per looked-up code.
// Repeated saves for the same code overwrite the previous files.
type Store struct {
	dir string
}

func New(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir}
}

func (s *Store) Dir() string { return s.dir }

// SaveJSON writes the raw response as received. Only whitespace is changed:
// valid JSON is re-indented, anything else is written byte for byte.
func (s *Store) SaveJSON(code string, raw []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	return s.write(code, ".json", buf.Bytes())
}

// SaveHTML renders the event table for the code.
func (s *Store) SaveHTML(code, number string, events []models.TrackingEvent) (string, error) {
	var buf bytes.Buffer
	if err := renderHTML(&buf, number, events); err != nil {
		return "", errors.Wrap(ErrWrite, "render html: "+err.Error())
	}
	return s.write(code, ".html", buf.Bytes())
}

func (s *Store) Path(code, ext string) string {
	return filepath.Join(s.dir, fileName(code)+ext)
}

func (s *Store) write(code, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(ErrWrite, "create snapshot dir: "+err.Error())
	}
	p := s.Path(code, ext)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", errors.Wrap(ErrWrite, "write "+p+": "+err.Error())
	}
	return p, nil
}

// fileName не даёт коду выйти за пределы каталога снапшотов.
func fileName(code string) string {
	code = strings.TrimSpace(code)
	code = strings.NewReplacer("/", "_", `\`, "_").Replace(code)
	if code == "" || code == "." || code == ".." {
		return "_"
	}
	return code
}
