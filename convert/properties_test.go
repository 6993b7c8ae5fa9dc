package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternMatchesWholeKey(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"*", "anything", true},
		{"*", "", true},
		{"Name", "Name", true},
		{"Name", "Name2", false},
		{"Name", "MyName", false},
		{"Data*", "DataSource", true},
		{"Data*", "Data", true},
		{"Data*", "MyDataSource", false},
		{"*Source", "DataSource", true},
		{"*ta*", "DataSource", true},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "aXXbYY", false},
		// only the star is special
		{"a.b", "axb", false},
		{"a.b", "a.b", true},
		{"a?c", "abc", false},
		{"a?c", "a?c", true},
		{"[x]", "x", false},
		{"[x]", "[x]", true},
		{"{a,b}", "a", false},
		{"{a,b}", "{a,b}", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.key, func(t *testing.T) {
			p, err := CompilePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(tt.key))
		})
	}
}

func TestSelectorUnionOrder(t *testing.T) {
	keys := []string{"a1", "b1", "a2", "b2"}

	s, err := NewSelector([]string{"b*", "a*"}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, Selection{"b1", "b2", "a1", "a2"}, s.Select(keys))

	// overlapping include patterns never duplicate a key
	s, err = NewSelector([]string{"*", "a*"}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, Selection{"a1", "b1", "a2", "b2"}, s.Select(keys))
}

func TestSelectorDefaultsToEverything(t *testing.T) {
	s, err := NewSelector(nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, Selection{"x", "y"}, s.Select([]string{"x", "y"}))
}

func TestSelectorExcludeWins(t *testing.T) {
	s, err := NewSelector([]string{"Name", "Data*"}, []string{"*Source", "nomatch"}, "")
	require.NoError(t, err)

	got := s.Select([]string{"Name", "DataSource", "DataType", "Other"})
	assert.Equal(t, Selection{"Name", "DataType"}, got)
}

func TestSelectorSuppressesWKTKey(t *testing.T) {
	s, err := NewSelector([]string{"*", "WKT"}, nil, "WKT")
	require.NoError(t, err)

	got := s.Select([]string{"id", "WKT", "name"})
	assert.Equal(t, Selection{"id", "name"}, got)
	assert.NotContains(t, got, "WKT")
}

func TestSelectorIsIdempotent(t *testing.T) {
	s, err := NewSelector([]string{"n*", "*"}, []string{"x*"}, "geom")
	require.NoError(t, err)

	keys := []string{"xa", "name", "geom", "id", "nb"}
	first := s.Select(keys)
	second := s.Select(keys)
	assert.Equal(t, first, second)
	assert.Equal(t, Selection{"name", "nb", "id"}, first)
	// the input slice is left alone
	assert.Equal(t, []string{"xa", "name", "geom", "id", "nb"}, keys)
}

func TestSelectorNoMatches(t *testing.T) {
	s, err := NewSelector([]string{"zzz*"}, []string{"yyy"}, "")
	require.NoError(t, err)
	assert.Empty(t, s.Select([]string{"a", "b"}))
}
