package subjects

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTag_FirstMatch(t *testing.T) {
	tagger := Default()

	testCases := []struct {
		title    string
		expected string
	}{
		{"President signs executive order", "The Executive Branch"},
		{"Senate debates spending BILL", "The Legislative Branch"},
		{"Supreme Court ruling on appeal", "The Judicial Branch"},
		{"Teachers strike over school funding", "Education"},
		{"Zelensky meets Modi in Delhi", "World Leaders"},
		{"Missile strike escalates conflict", "International Conflicts"},
		{"Quiet weekend at the beach", General},
		// "house" is checked before "court" because the legislative branch comes first.
		{"House hearing on court reform", "The Legislative Branch"},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			assert.Equal(t, tc.expected, tagger.Tag(tc.title))
		})
	}
}

func TestTag_Idempotent(t *testing.T) {
	for _, policy := range []Policy{PolicyFirstMatch, PolicyBestConfidence} {
		tagger, err := New(DefaultCategories, policy)
		require.NoError(t, err)

		for _, title := range []string{
			"Global trade talks stall as exports fall",
			"Court blocks protest ban",
			"",
		} {
			assert.Equal(t, tagger.Tag(title), tagger.Tag(title), "policy %s title %q", policy, title)
		}
	}
}

func TestClassify_BestConfidence(t *testing.T) {
	tagger, err := New(DefaultCategories, PolicyBestConfidence)
	require.NoError(t, err)

	// One legislative keyword ("house") against four global-economy keywords.
	title := "House eyes global trade deal as exports and imports climb"

	first := Default().Classify(title)
	assert.Equal(t, "The Legislative Branch", first.Subject)

	best := tagger.Classify(title)
	assert.Equal(t, "The Global Economy", best.Subject)
	assert.Equal(t, 4, best.Matched)
	assert.InDelta(t, 1.0, best.Confidence, 1e-9)
}

func TestClassify_NoMatchIsGeneral(t *testing.T) {
	tagger, err := New(DefaultCategories, PolicyBestConfidence)
	require.NoError(t, err)

	m := tagger.Classify("Local bakery wins pie contest")
	assert.Equal(t, General, m.Subject)
	assert.Zero(t, m.Confidence)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(DefaultCategories, "coin-flip")
	assert.Error(t, err)

	_, err = New(nil, PolicyFirstMatch)
	assert.Error(t, err)

	_, err = New([]Category{{Keywords: []string{"x"}}}, PolicyFirstMatch)
	assert.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subjects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: Space
  keywords: [NASA, rocket, " orbit "]
- name: Sports
  keywords: [league, match]
`), 0o644))

	categories, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	tagger, err := New(categories, PolicyFirstMatch)
	require.NoError(t, err)

	assert.Equal(t, "Space", tagger.Tag("Rocket reaches ORBIT"))
	assert.Equal(t, "Sports", tagger.Tag("League final tonight"))
	assert.Equal(t, []string{"Space", "Sports", General}, tagger.Subjects())
}
