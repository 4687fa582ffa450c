package ecmwf

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecodeFile(t *testing.T) {
	fixes, err := DecodeFile(filepath.Join("testdata", "harold.xml"))
	require.NoError(t, err)
	require.Len(t, fixes, 3, "analysis block and unnamed disturbance are dropped")

	base := time.Date(2020, 4, 5, 12, 0, 0, 0, time.UTC)
	want := Fix{
		MType:         TypeEnsembleForecast,
		Product:       "european centre for medium-range weather forecasts",
		CycloneNumber: "25",
		Ensemble:      "7",
		Name:          "harold",
		Basin:         "Southwest Pacific",
		Speed:         "45.2",
		Pressure:      "950",
		ValidTime:     base,
		Lat:           -15.2,
		Lon:           166.9,
		LeadTimeHours: 0,
		ForecastTime:  base,
	}
	if diff := cmp.Diff(want, fixes[0]); diff != "" {
		t.Fatalf("first fix mismatch (-want +got):\n%s", diff)
	}

	t.Run("western longitude negated", func(t *testing.T) {
		assert.InDelta(t, -16.1, fixes[1].Lat, 1e-9)
		assert.InDelta(t, -179.5, fixes[1].Lon, 1e-9)
		assert.Equal(t, 12, fixes[1].LeadTimeHours)
		assert.Empty(t, fixes[1].Speed)
	})

	t.Run("deterministic forecast has no member", func(t *testing.T) {
		assert.Equal(t, TypeForecast, fixes[2].MType)
		assert.Empty(t, fixes[2].Ensemble)
		assert.Equal(t, "irondro", fixes[2].Name)
	})
}

func TestDecode_NameFilter(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "harold.xml"))
	require.NoError(t, err)
	defer f.Close()

	fixes, err := Decode(f, "IRONDRO")
	require.NoError(t, err)
	require.Len(t, fixes, 1)
	assert.Equal(t, "irondro", fixes[0].Name)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", "this is not xml"},
		{"wrong root", "<other/>"},
		{"no base time", "<cxml><header/></cxml>"},
		{"bad latitude", `<cxml><header><baseTime>2020-01-01T00:00:00Z</baseTime></header>
<data type="forecast"><disturbance><cycloneName>A</cycloneName>
<fix hour="0"><validTime>2020-01-01T00:00:00Z</validTime><latitude>x</latitude><longitude>1</longitude></fix>
</disturbance></data></cxml>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeDir_SkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	good, err := os.ReadFile(filepath.Join("testdata", "harold.xml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.xml"), []byte("<broken"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.xml"), good, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	fixes, err := DecodeDir(dir, discardLogger())
	require.NoError(t, err)
	assert.Len(t, fixes, 3)
}
