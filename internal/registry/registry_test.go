package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscan/internal/domain"
)

func sym(s string) *Symbol {
	v := Symbol(s)
	return &v
}

func testRegistry() *Registry {
	return New([]Entry{
		{
			Tag:         "BTC-31MAY70K",
			Description: "Will Bitcoin close at or above $70,000 on 31 May 2025?",
			Kalshi:      sym("BTC-70K-31MAY25"),
			Nadex:       sym("BTC-70000-31MAY25"),
		},
		{
			Tag:         "FOMC-JUN25BP",
			Description: "Will the FOMC cut rates by 25 basis points in June 2025?",
			Kalshi:      sym("FED-25BP-JUN25"),
			PredictIt:   sym("8973"),
		},
	})
}

func TestTagFor(t *testing.T) {
	r := testRegistry()

	tag, ok := r.TagFor(domain.ExchangeKalshi, "BTC-70K-31MAY25")
	require.True(t, ok)
	assert.Equal(t, "BTC-31MAY70K", tag)

	tag, ok = r.TagFor(domain.ExchangeNadex, "BTC-70000-31MAY25")
	require.True(t, ok)
	assert.Equal(t, "BTC-31MAY70K", tag)

	// PredictIt market IDs are numeric upstream but compare as strings.
	tag, ok = r.TagFor(domain.ExchangePredictIt, "8973")
	require.True(t, ok)
	assert.Equal(t, "FOMC-JUN25BP", tag)
}

func TestTagForDuplicateSymbolLastWins(t *testing.T) {
	r := New([]Entry{
		{Tag: "first", Kalshi: sym("BTC-70K-31MAY25")},
		{Tag: "second", Kalshi: sym("BTC-70K-31MAY25")},
	})

	tag, ok := r.TagFor(domain.ExchangeKalshi, "BTC-70K-31MAY25")
	require.True(t, ok)
	assert.Equal(t, "second", tag)
}

func TestTagForUnknown(t *testing.T) {
	r := testRegistry()

	_, ok := r.TagFor(domain.ExchangeKalshi, "UNKNOWN-SYMBOL")
	assert.False(t, ok)

	// Symbol listed for one venue is not found under another.
	_, ok = r.TagFor(domain.ExchangeNadex, "BTC-70K-31MAY25")
	assert.False(t, ok)

	_, ok = r.TagFor(domain.Exchange("Betfair"), "BTC-70K-31MAY25")
	assert.False(t, ok)
}

func TestVenueSymbols(t *testing.T) {
	r := testRegistry()

	venues := r.VenueSymbols("BTC-31MAY70K")
	assert.Equal(t, map[domain.Exchange]string{
		domain.ExchangeKalshi: "BTC-70K-31MAY25",
		domain.ExchangeNadex:  "BTC-70000-31MAY25",
	}, venues)

	venues = r.VenueSymbols("FOMC-JUN25BP")
	assert.Equal(t, map[domain.Exchange]string{
		domain.ExchangeKalshi:    "FED-25BP-JUN25",
		domain.ExchangePredictIt: "8973",
	}, venues)
}

func TestVenueSymbolsUnknownTag(t *testing.T) {
	r := testRegistry()

	// Unknown tags yield an empty map, never an error.
	venues := r.VenueSymbols("NO-SUCH-TAG")
	assert.NotNil(t, venues)
	assert.Empty(t, venues)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event_registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- tag: BTC-31MAY70K
  description: Will Bitcoin close at or above $70,000 on 31 May 2025?
  kalshi: BTC-70K-31MAY25
  nadex: BTC-70000-31MAY25
  predictit: null
- tag: FOMC-JUN25BP
  description: Will the FOMC cut rates by 25 basis points in June 2025?
  kalshi: FED-25BP-JUN25
  nadex: null
  predictit: 8973
`), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"BTC-31MAY70K", "FOMC-JUN25BP"}, r.Tags())

	// Numeric YAML scalar normalized to its string form.
	tag, ok := r.TagFor(domain.ExchangePredictIt, "8973")
	require.True(t, ok)
	assert.Equal(t, "FOMC-JUN25BP", tag)

	// Explicit nulls mean the venue does not list the event.
	venues := r.VenueSymbols("BTC-31MAY70K")
	_, hasPredictIt := venues[domain.ExchangePredictIt]
	assert.False(t, hasPredictIt)
}

func TestLoadRejectsMissingTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event_registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- description: no tag here\n  kalshi: X\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
