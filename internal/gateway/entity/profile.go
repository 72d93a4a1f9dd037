package entity

import "strings"

// Handle identifies a registered player. Handles are immutable after
// registration and compared verbatim.
type Handle string

func NormalizeHandle(raw string) Handle {
	return Handle(strings.TrimSpace(raw))
}

func (h Handle) String() string {
	return strings.TrimSpace(string(h))
}

func (h Handle) IsZero() bool {
	return h.String() == ""
}

// Badge tiers derived from the discovery count.
const (
	BadgeBeginnerExplorer   = "Beginner Explorer"
	BadgeForestAdventurer   = "Forest Adventurer"
	BadgeWildlifeRanger     = "Wildlife Ranger"
	BadgeLegendaryZoologist = "Legendary Zoologist"
)

// BadgeFor maps a discovery count to its badge tier. Boundaries are
// inclusive-lower / exclusive-upper.
func BadgeFor(count int) string {
	switch {
	case count < 5:
		return BadgeBeginnerExplorer
	case count < 10:
		return BadgeForestAdventurer
	case count < 20:
		return BadgeWildlifeRanger
	default:
		return BadgeLegendaryZoologist
	}
}

// NormalizeLabel canonicalizes a species label for set membership.
// Labels are compared lowercase and trimmed.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Profile is the per-player discovery ledger state. Discovered holds
// normalized species labels in insertion order; Level and Badge are
// derived from it and recomputed on every mutation so the invariant
// Level == 1 + len(Discovered) holds after any completed update.
type Profile struct {
	Handle         Handle
	CredentialHash string
	Level          int
	Discovered     []string
	Badge          string
}

// NewProfile returns a fresh profile at level 1 with no discoveries.
func NewProfile(handle Handle, credentialHash string) Profile {
	return Profile{
		Handle:         handle,
		CredentialHash: credentialHash,
		Level:          1,
		Discovered:     []string{},
		Badge:          BadgeFor(0),
	}
}

func (p *Profile) DiscoveredCount() int {
	return len(p.Discovered)
}

// HasDiscovered reports whether the species is already in the ledger,
// under any case or whitespace variant of the label.
func (p *Profile) HasDiscovered(label string) bool {
	want := NormalizeLabel(label)
	for _, got := range p.Discovered {
		if NormalizeLabel(got) == want {
			return true
		}
	}
	return false
}

// AddDiscovery records a species if it is not already present and
// returns whether the ledger changed. On a new discovery the level is
// incremented by exactly one and the badge recomputed from the table,
// never patched incrementally.
func (p *Profile) AddDiscovery(label string) bool {
	normalized := NormalizeLabel(label)
	if normalized == "" || p.HasDiscovered(normalized) {
		return false
	}
	p.Discovered = append(p.Discovered, normalized)
	p.Level++
	p.Badge = BadgeFor(len(p.Discovered))
	return true
}

// Normalize rewrites the discovered list into canonical form, dropping
// empties and case/whitespace duplicates, and re-derives level and
// badge. Stores apply it on both read and write paths.
func (p *Profile) Normalize() {
	p.Handle = NormalizeHandle(string(p.Handle))
	seen := make(map[string]struct{}, len(p.Discovered))
	out := make([]string, 0, len(p.Discovered))
	for _, raw := range p.Discovered {
		label := NormalizeLabel(raw)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	p.Discovered = out
	p.Level = 1 + len(out)
	p.Badge = BadgeFor(len(out))
}

// Clone returns a deep copy so callers cannot alias the stored slice.
func (p Profile) Clone() Profile {
	cp := p
	cp.Discovered = append([]string(nil), p.Discovered...)
	return cp
}
