package main

import (
	"testing"

	"github.com/couchcryptid/storm-impact-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTracks = []domain.StormTrack{
	{SID: "2019063S18038", Name: "IDAI", Year: 2019},
	{SID: "2021239N17281", Name: "IDA", Year: 2021},
	{SID: "2022020S13059", Name: "BATSIRAI", Year: 2022},
}

func TestValidate_Clean(t *testing.T) {
	o := &domain.Overrides{
		TypoCorrections: map[string]string{"batsiray": "batsirai"},
		RenameCountry:   170,
		Renames:         map[domain.NameYear]string{{Name: "Local storm", Year: 2022}: "Batsirai"},
		SpecificIDs:     map[domain.RecordKey]string{{Name: "Idai", Year: 2019, Asap0ID: 170}: "2019063S18038"},
		Tiebreaks:       map[domain.RecordKey]string{{Name: "Local storm", Year: 2022, Asap0ID: 170}: "2022020S13059"},
	}

	for _, p := range validate(testTracks, o) {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name      string
		overrides *domain.Overrides
		phase     int
		wantErr   string
	}{
		{
			name:      "unknown specific id",
			overrides: &domain.Overrides{SpecificIDs: map[domain.RecordKey]string{{Name: "Idai", Year: 2019}: "NOPE"}},
			phase:     0,
			wantErr:   "sid NOPE is not in the track table",
		},
		{
			name:      "empty typo target",
			overrides: &domain.Overrides{TypoCorrections: map[string]string{"noise": ""}},
			phase:     1,
			wantErr:   "empty word",
		},
		{
			name: "rename target matches nothing",
			overrides: &domain.Overrides{
				RenameCountry: 170,
				Renames:       map[domain.NameYear]string{{Name: "Local", Year: 2000}: "Zelda"},
			},
			phase:   2,
			wantErr: `target "Zelda" matches no track name`,
		},
		{
			name:      "renames without country",
			overrides: &domain.Overrides{Renames: map[domain.NameYear]string{{Name: "Local", Year: 2000}: "Ida"}},
			phase:     2,
			wantErr:   "rename_country is not set",
		},
		{
			name:      "tiebreak outside candidates",
			overrides: &domain.Overrides{Tiebreaks: map[domain.RecordKey]string{{Name: "Ida", Year: 2021, Asap0ID: 51}: "2019063S18038"}},
			phase:     3,
			wantErr:   "is not a name candidate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phases := validate(testTracks, tt.overrides)
			require.Len(t, phases, 4)
			p := phases[tt.phase]
			require.False(t, p.passed())
			assert.Contains(t, p.errors[0], tt.wantErr)
		})
	}
}
