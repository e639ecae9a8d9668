package snapshots

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/BearBump/vasptrack/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestStore_SaveJSON_CreatesDirAndKeepsContent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")
	s := New(dir)

	raw := []byte(`{"zeta":1,"alpha":{"b":"EM DISTRIBUIÇÃO"}}`)
	p, err := s.SaveJSON("VX1", raw)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "VX1.json"), p)

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	require.JSONEq(t, string(raw), string(got))
	// порядок ключей сохраняется
	require.Less(t, strings.Index(string(got), "zeta"), strings.Index(string(got), "alpha"))
	require.Contains(t, string(got), "EM DISTRIBUIÇÃO")
}

func TestStore_SaveJSON_NonJSONWrittenVerbatim(t *testing.T) {
	s := New(t.TempDir())
	p, err := s.SaveJSON("X", []byte("plain"))
	require.NoError(t, err)
	got, _ := os.ReadFile(p)
	require.Equal(t, "plain", string(got))
}

func TestStore_Overwrites(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	p1, err := s.SaveJSON("VX1", []byte(`{"v":1}`))
	require.NoError(t, err)
	p2, err := s.SaveJSON("VX1", []byte(`{"v":2}`))
	require.NoError(t, err)
	require.Equal(t, p1, p2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got, _ := os.ReadFile(p2)
	require.JSONEq(t, `{"v":2}`, string(got))
}

func TestStore_SaveHTML(t *testing.T) {
	s := New(t.TempDir())
	events := []models.TrackingEvent{
		{Timestamp: strp("2025-11-03T08:15:00Z"), State: strp("RECOLHIDA"), Location: strp("Centro Lisboa"), Description: strp("Encomenda recolhida")},
		{Timestamp: strp("2025-11-04T08:15:00Z"), State: strp("<b>A & B</b>")},
	}
	p, err := s.SaveHTML("VX1", "VX1-CANON", events)
	require.NoError(t, err)
	require.Equal(t, ".html", filepath.Ext(p))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	html := string(b)
	require.Contains(t, html, "<title>Tracking VX1-CANON</title>")
	require.Contains(t, html, "Tracking Snapshot - VX1-CANON")
	require.Contains(t, html, "<th>Date</th><th>State</th><th>Location</th><th>Description</th>")
	require.Contains(t, html, "<td>Centro Lisboa</td>")
	require.NotContains(t, html, "<b>A & B</b>")
}

func TestStore_SaveHTML_NoEvents(t *testing.T) {
	s := New(t.TempDir())
	p, err := s.SaveHTML("EMPTY", "EMPTY", nil)
	require.NoError(t, err)
	b, _ := os.ReadFile(p)
	require.Contains(t, string(b), "</table>")
}

func TestStore_PathSanitized(t *testing.T) {
	s := New("snap")
	require.Equal(t, filepath.Join("snap", "a_b.json"), s.Path("a/b", ".json"))
	require.Equal(t, filepath.Join("snap", "_.json"), s.Path("..", ".json"))
}

func TestStore_UnwritableDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file-as-dir semantics differ")
	}
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s := New(filepath.Join(blocker, "snapshots"))
	_, err := s.SaveJSON("VX1", []byte(`{}`))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrWrite))
}
