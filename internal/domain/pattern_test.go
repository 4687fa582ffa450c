package domain

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameWords(t *testing.T) {
	typos := &Overrides{TypoCorrections: map[string]string{"batsiray": "batsirai", "noise": ""}}

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single word", "Gloria", []string{"gloria"}},
		{"quoted name", "Tropical cyclone 'Idai'", []string{"tropical", "cyclone", "idai"}},
		{"apostrophe joins", "Fay's", []string{"fays"}},
		{"slash splits", "Ana/Batsiray", []string{"ana", "batsirai"}},
		{"hyphen splits", "Jack-Jill", []string{"jack", "jill"}},
		{"duplicates dropped", "Ida ida IDA", []string{"ida"}},
		{"typo to empty drops word", "noise Gloria", []string{"gloria"}},
		{"brackets and commas", "Storm (Eloise), 2021", []string{"storm", "eloise", "2021"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NameWords(tt.input, typos))
		})
	}
}

// namePattern compiles a pattern the way the reconciler does for one name.
func namePattern(name string, o *Overrides) (*regexp.Regexp, error) {
	return CompileWords(NameWords(name, o))
}

func TestNamePattern(t *testing.T) {
	re, err := namePattern("jack jill 2020", nil)
	require.NoError(t, err)
	assert.Equal(t, `(?i)\b(jack|jill|2020)\b`, re.String())

	t.Run("case insensitive", func(t *testing.T) {
		assert.True(t, re.MatchString("JACK JILL"))
		assert.True(t, re.MatchString(matchName("jack-jill")))
	})

	t.Run("word bounded", func(t *testing.T) {
		assert.False(t, re.MatchString("jackson"))
		assert.False(t, re.MatchString("jillian"))
	})

	t.Run("hyphen joined track names need splitting", func(t *testing.T) {
		single, err := namePattern("jackjill", nil)
		require.NoError(t, err)
		assert.False(t, single.MatchString(matchName("jack-jill")))
	})

	t.Run("metacharacters are quoted", func(t *testing.T) {
		// Typo targets are free text and may carry regex syntax.
		re, err := namePattern("x", &Overrides{TypoCorrections: map[string]string{"x": "a.b"}})
		require.NoError(t, err)
		assert.True(t, re.MatchString("a.b"))
		assert.False(t, re.MatchString("axb"))
	})

	t.Run("no words", func(t *testing.T) {
		re, err := namePattern("--", nil)
		require.NoError(t, err)
		assert.Nil(t, re)
	})
}

func TestPatternCache(t *testing.T) {
	t.Run("hit returns stored pattern", func(t *testing.T) {
		c := newPatternCache(2)
		re := regexp.MustCompile("a")
		c.put("a", re)

		got, ok := c.get("a")
		require.True(t, ok)
		assert.Same(t, re, got)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c := newPatternCache(2)
		c.put("a", regexp.MustCompile("a"))
		c.put("b", regexp.MustCompile("b"))
		_, _ = c.get("a") // a becomes most recent
		c.put("c", regexp.MustCompile("c"))

		_, okA := c.get("a")
		_, okB := c.get("b")
		_, okC := c.get("c")
		assert.True(t, okA)
		assert.False(t, okB, "b should have been evicted")
		assert.True(t, okC)
		assert.Equal(t, 2, c.len())
	})

	t.Run("update keeps size", func(t *testing.T) {
		c := newPatternCache(3)
		c.put("a", regexp.MustCompile("a"))
		c.put("a", regexp.MustCompile("aa"))
		got, ok := c.get("a")
		require.True(t, ok)
		assert.Equal(t, "aa", got.String())
		assert.Equal(t, 1, c.len())
	})

	t.Run("disabled", func(t *testing.T) {
		c := newPatternCache(0)
		c.put("a", regexp.MustCompile("a"))
		_, ok := c.get("a")
		assert.False(t, ok)
	})

	t.Run("reconciler reuses patterns", func(t *testing.T) {
		r := NewReconciler([]StormTrack{{SID: "X1", Name: "gloria", Year: 2000}}, nil, nil, 8)
		for i := 0; i < 5; i++ {
			_, err := r.Resolve(ImpactRecord{EventName: "Gloria", StartYear: 2000, Asap0ID: i})
			require.NoError(t, err, "asap0 "+strconv.Itoa(i))
		}
		assert.Equal(t, 1, r.patterns.len())
	})
}
