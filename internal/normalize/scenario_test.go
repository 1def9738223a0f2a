package normalize

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type equivalenceScenario struct {
	Name   string         `yaml:"name"`
	Flat   map[string]any `yaml:"flat"`
	Nested map[string]any `yaml:"nested"`
	Want   string         `yaml:"want"`
}

func loadScenarios(t *testing.T, path string) []equivalenceScenario {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []equivalenceScenario
	require.NoError(t, yaml.Unmarshal(b, &out))
	require.NotEmpty(t, out)
	return out
}

func TestDialectEquivalence(t *testing.T) {
	for _, sc := range loadScenarios(t, "testdata/dialect_equivalence.yaml") {
		t.Run(sc.Name, func(t *testing.T) {
			flat := Normalize(sc.Flat)
			nested := Normalize(sc.Nested)

			assert.JSONEq(t, sc.Want, encode(t, flat), "flat")
			assert.JSONEq(t, sc.Want, encode(t, nested), "nested")
		})
	}
}

// A normalized record fed back in must come out unchanged.
func TestDialectEquivalence_OutputIsFixedPoint(t *testing.T) {
	for _, sc := range loadScenarios(t, "testdata/dialect_equivalence.yaml") {
		t.Run(sc.Name, func(t *testing.T) {
			once := encode(t, Normalize(sc.Flat))
			twice := encode(t, Normalize(decode(t, once)))
			assert.JSONEq(t, once, twice)
		})
	}
}
