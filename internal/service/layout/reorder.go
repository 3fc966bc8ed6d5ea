package layout

import (
	"slices"

	"github.com/janisto/cv-builder/internal/service/profile"
)

// Kind tags the collection an item belongs to. Moves only happen between
// items of the same kind.
type Kind string

const (
	KindSection    Kind = "section"
	KindExperience Kind = "experience-entry"
	KindEducation  Kind = "education-entry"
	KindSkill      Kind = "skill"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSection, KindExperience, KindEducation, KindSkill:
		return true
	}
	return false
}

// ItemKey identifies a draggable item. Keys compare structurally.
type ItemKey struct {
	Kind Kind   `json:"kind"`
	Key  string `json:"key"`
}

// MoveEvent is a completed drag: Active was dropped on Over. A nil Over means
// the drop had no target.
type MoveEvent struct {
	Active ItemKey  `json:"active"`
	Over   *ItemKey `json:"over,omitempty"`
}

// MoveIndex returns a copy of items with the element at from removed and
// reinserted at to. Out-of-range indices return an unchanged copy.
func MoveIndex[T any](items []T, from, to int) []T {
	out := slices.Clone(items)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

// Move applies ev to items, locating both ends by keyOf. The result is always
// a new slice; items is never modified.
func Move[T any](items []T, keyOf func(T) ItemKey, ev MoveEvent) []T {
	out, _ := move(items, keyOf, ev)
	return out
}

func move[T any](items []T, keyOf func(T) ItemKey, ev MoveEvent) ([]T, bool) {
	if ev.Over == nil || ev.Active.Kind != ev.Over.Kind {
		return slices.Clone(items), false
	}
	from := slices.IndexFunc(items, func(it T) bool { return keyOf(it) == ev.Active })
	to := slices.IndexFunc(items, func(it T) bool { return keyOf(it) == *ev.Over })
	if from < 0 || to < 0 {
		return slices.Clone(items), false
	}
	return MoveIndex(items, from, to), from != to
}

// ApplyMove returns a copy of draft with ev applied to the collection named by
// the active kind. A section move materializes the effective order. Events
// that do not resolve leave the draft unchanged.
func ApplyMove(draft profile.Profile, ev MoveEvent) profile.Profile {
	out := *draft.Clone()

	switch ev.Active.Kind {
	case KindSection:
		order, moved := move(EffectiveOrder(draft.SectionsOrder),
			func(s string) ItemKey { return ItemKey{Kind: KindSection, Key: s} }, ev)
		if moved {
			out.SectionsOrder = order
		}
	case KindExperience:
		out.Experience = Move(draft.Experience,
			func(e profile.Experience) ItemKey { return ItemKey{Kind: KindExperience, Key: e.ID} }, ev)
	case KindEducation:
		out.Education = Move(draft.Education,
			func(e profile.Education) ItemKey { return ItemKey{Kind: KindEducation, Key: e.ID} }, ev)
	case KindSkill:
		out.Skills = Move(draft.Skills,
			func(s string) ItemKey { return ItemKey{Kind: KindSkill, Key: s} }, ev)
	}
	return out
}
