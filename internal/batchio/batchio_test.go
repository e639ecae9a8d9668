package batchio

import (
	"encoding/csv"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BearBump/vasptrack/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestReadCodes_TXT(t *testing.T) {
	p := write(t, "codes.txt", "1234522222213\n\n  67890223124141  \nshort\n")
	got, err := ReadCodes(p, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"1234522222213", "67890223124141"}, got.Valid)
	require.Equal(t, 1, got.Skipped)
}

func TestFilterCodes_MinimumLength(t *testing.T) {
	in := []string{"123452222221", "short", "67890223124141"}

	// "123452222221" has 12 characters, so the default minimum drops it.
	got := FilterCodes(in, DefaultMinCodeLength)
	require.Equal(t, []string{"67890223124141"}, got.Valid)
	require.Equal(t, 2, got.Skipped)

	got = FilterCodes(in, 12)
	require.Equal(t, []string{"123452222221", "67890223124141"}, got.Valid)
	require.Equal(t, 1, got.Skipped)
}

func TestFilterCodes_CountsCharactersNotBytes(t *testing.T) {
	// 7 символов, 14 байт
	got := FilterCodes([]string{"ÇÇÇÇÇÇÇ", "ÇÇÇÇÇÇÇÇÇÇÇÇÇ"}, DefaultMinCodeLength)
	require.Equal(t, []string{"ÇÇÇÇÇÇÇÇÇÇÇÇÇ"}, got.Valid)
	require.Equal(t, 1, got.Skipped)
}

func TestReadCodes_CSV_CodigoColumn(t *testing.T) {
	p := write(t, "codes.csv", "id,codigo\n1,VX0000000001PT\n2,\n3,VX0000000003PT\n")
	got, err := ReadCodes(p, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"VX0000000001PT", "VX0000000003PT"}, got.Valid)
	require.Zero(t, got.Skipped)
}

func TestReadCodes_CSV_FirstColumnFallback(t *testing.T) {
	p := write(t, "codes.csv", "code,note\nA,x\nB,y\nC,z\n")
	got, err := ReadCodes(p, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, got.Valid)
}

func TestReadCodes_Errors(t *testing.T) {
	_, err := ReadCodes(write(t, "codes.xlsx", "x"), 0)
	require.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = ReadCodes(filepath.Join(t.TempDir(), "missing.txt"), 0)
	require.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = ReadCodes(write(t, "empty.csv", ""), 0)
	require.True(t, errors.Is(err, ErrEmptyInput))

	_, err = ReadCodes(write(t, "empty.txt", ""), 0)
	require.True(t, errors.Is(err, ErrEmptyInput))
}

func strp(s string) *string { return &s }

func sampleRecords() []*models.TrackingRecord {
	return []*models.TrackingRecord{
		{
			Number:       "VX1",
			Status:       models.TrackingStatusOK,
			LastUpdate:   strp("2025-11-05T15:30:00Z"),
			CurrentState: "EM DISTRIBUIÇÃO",
			Events: []models.TrackingEvent{
				{Timestamp: strp("2025-11-03T08:15:00Z"), State: strp("RECOLHIDA")},
			},
			RawJSONSnapshotPath: "snapshots/VX1.json",
			RawHTMLSnapshotPath: "snapshots/VX1.html",
		},
		{
			Number:       "VX2",
			Status:       models.TrackingStatusNotFound,
			CurrentState: models.CurrentStateUnknown,
			Events:       []models.TrackingEvent{},
		},
	}
}

func TestWriteResults_JSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, WriteResults(p, sampleRecords()))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Contains(t, string(b), "EM DISTRIBUIÇÃO")
	require.Contains(t, string(b), "\n    {")

	var got []map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	require.Len(t, got, 2)
	require.Equal(t, "VX1", got[0]["number"])
	require.Nil(t, got[1]["last_update"])
	require.Equal(t, []any{}, got[1]["events"])

	ev := got[0]["events"].([]any)[0].(map[string]any)
	require.Contains(t, ev, "location")
	require.Nil(t, ev["location"])
}

func TestWriteResults_CSV(t *testing.T) {
	p := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, WriteResults(p, sampleRecords()))

	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, csvHeader, rows[0])
	require.Equal(t, "VX1", rows[1][0])
	require.True(t, strings.HasPrefix(rows[1][4], `[{"timestamp":"2025-11-03T08:15:00Z"`))
	require.Equal(t, "", rows[2][2])
}

func TestWriteResults_Errors(t *testing.T) {
	dir := t.TempDir()
	require.True(t, errors.Is(WriteResults(filepath.Join(dir, "r.json"), nil), ErrNoResults))
	require.True(t, errors.Is(WriteResults(filepath.Join(dir, "r.xml"), sampleRecords()), ErrUnsupportedFormat))
	require.Error(t, WriteResults(filepath.Join(dir, "missing", "r.json"), sampleRecords()))
}
