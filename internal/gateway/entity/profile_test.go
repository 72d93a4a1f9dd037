package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgeForBoundaries(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{0, BadgeBeginnerExplorer},
		{4, BadgeBeginnerExplorer},
		{5, BadgeForestAdventurer},
		{9, BadgeForestAdventurer},
		{10, BadgeWildlifeRanger},
		{19, BadgeWildlifeRanger},
		{20, BadgeLegendaryZoologist},
		{57, BadgeLegendaryZoologist},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BadgeFor(tc.count), "count=%d", tc.count)
	}
}

func TestNewProfile(t *testing.T) {
	p := NewProfile("ava", "hash")
	assert.Equal(t, 1, p.Level)
	assert.Empty(t, p.Discovered)
	assert.Equal(t, BadgeBeginnerExplorer, p.Badge)
}

func TestAddDiscovery(t *testing.T) {
	p := NewProfile("ava", "hash")

	require.True(t, p.AddDiscovery("Tiger"))
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, []string{"tiger"}, p.Discovered)
	assert.Equal(t, BadgeBeginnerExplorer, p.Badge)

	// Case and whitespace variants are the same species.
	require.False(t, p.AddDiscovery("  TIGER "))
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, []string{"tiger"}, p.Discovered)

	require.False(t, p.AddDiscovery("   "))
	assert.Equal(t, 2, p.Level)
}

func TestLevelInvariantAcrossSequence(t *testing.T) {
	p := NewProfile("ava", "hash")
	labels := []string{"fox", "Fox", "owl", "tiger", "OWL", "lynx", "tiger"}
	for _, l := range labels {
		p.AddDiscovery(l)
		assert.Equal(t, 1+len(p.Discovered), p.Level)
		assert.Equal(t, BadgeFor(len(p.Discovered)), p.Badge)
	}
	assert.Equal(t, []string{"fox", "owl", "tiger", "lynx"}, p.Discovered)
}

func TestHasDiscoveredVariants(t *testing.T) {
	p := NewProfile("ava", "hash")
	require.True(t, p.AddDiscovery("red panda"))

	assert.True(t, p.HasDiscovered("red panda"))
	assert.True(t, p.HasDiscovered(" Red Panda "))
	assert.False(t, p.HasDiscovered("panda"))
}

func TestNormalizeRepairsState(t *testing.T) {
	p := Profile{
		Handle:     " ava ",
		Level:      99,
		Discovered: []string{" Fox", "fox", "", "Owl "},
		Badge:      "stale",
	}
	p.Normalize()

	assert.Equal(t, Handle("ava"), p.Handle)
	assert.Equal(t, []string{"fox", "owl"}, p.Discovered)
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, BadgeBeginnerExplorer, p.Badge)
}

func TestCloneDoesNotAlias(t *testing.T) {
	p := NewProfile("ava", "hash")
	p.AddDiscovery("fox")

	cp := p.Clone()
	cp.AddDiscovery("owl")

	assert.Equal(t, []string{"fox"}, p.Discovered)
	assert.Equal(t, []string{"fox", "owl"}, cp.Discovered)
}
