// Package layout decides which profile sections render, in what order, and
// reorders sections and list items in response to drag-and-drop moves.
//
// Everything here is pure: no I/O, no shared state, inputs are never mutated.
package layout

import (
	"strings"

	"github.com/janisto/cv-builder/internal/platform/timeutil"
	"github.com/janisto/cv-builder/internal/service/profile"
)

// Section identifies a block of the rendered profile.
type Section string

const (
	SectionHeader     Section = "header"
	SectionContact    Section = "contact"
	SectionExperience Section = "experience"
	SectionEducation  Section = "education"
	SectionSkills     Section = "skills"

	// SectionBio is accepted in stored orders for compatibility and never rendered.
	SectionBio Section = "bio"
)

// PresentLabel replaces the end date of a current entry.
const PresentLabel = "Present"

// DefaultOrder is used when a profile has no sections order.
func DefaultOrder() []string {
	return []string{
		string(SectionHeader),
		string(SectionContact),
		string(SectionExperience),
		string(SectionEducation),
		string(SectionSkills),
	}
}

// EffectiveOrder returns order, or DefaultOrder when order is empty.
func EffectiveOrder(order []string) []string {
	if len(order) == 0 {
		return DefaultOrder()
	}
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// Header is the always-visible identity block.
type Header struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Location string `json:"location,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// ContactLink is one rendered contact channel.
type ContactLink struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Entry is an experience or education item prepared for display.
type Entry struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Organization string `json:"organization"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate,omitempty"`
	Period       string `json:"period"`
	Description  string `json:"description,omitempty"`
}

// Block is the composer's verdict for one token of the order. Content fields
// are populated only for visible blocks of the matching section.
type Block struct {
	Section   Section       `json:"section"`
	Visible   bool          `json:"visible"`
	Separator bool          `json:"separator"`
	Header    *Header       `json:"header,omitempty"`
	Contact   []ContactLink `json:"contact,omitempty"`
	Entries   []Entry       `json:"entries,omitempty"`
	Skills    []string      `json:"skills,omitempty"`
}

// Compose evaluates every token of order (or the default order when empty)
// against p. Duplicate tokens yield duplicate blocks; unknown tokens yield
// hidden blocks. Separator is set on a visible block when any later block is
// visible.
func Compose(p profile.Profile, order []string) []Block {
	tokens := EffectiveOrder(order)
	blocks := make([]Block, len(tokens))

	for i, tok := range tokens {
		b := Block{Section: Section(tok)}
		b.Visible = isVisible(p, b.Section)
		if b.Visible {
			fill(&b, p)
		}
		blocks[i] = b
	}

	visibleAfter := false
	for i := len(blocks) - 1; i >= 0; i-- {
		blocks[i].Separator = blocks[i].Visible && visibleAfter
		visibleAfter = visibleAfter || blocks[i].Visible
	}
	return blocks
}

// Visible returns only the blocks that render, preserving order.
func Visible(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Visible {
			out = append(out, b)
		}
	}
	return out
}

func hasContact(p profile.Profile) bool {
	return p.Email != "" || p.Website != "" || p.GitHub != "" || p.LinkedIn != "" || p.Twitter != ""
}

func isVisible(p profile.Profile, s Section) bool {
	switch s {
	case SectionHeader:
		return true
	case SectionContact:
		return hasContact(p)
	case SectionExperience:
		return len(p.Experience) > 0
	case SectionEducation:
		return len(p.Education) > 0
	case SectionSkills:
		return len(p.Skills) > 0
	default:
		return false
	}
}

func fill(b *Block, p profile.Profile) {
	switch b.Section {
	case SectionHeader:
		b.Header = &Header{Name: p.Name, Title: p.Title, Location: p.Location, Bio: p.Bio}
	case SectionContact:
		b.Contact = ContactLinks(p)
	case SectionExperience:
		b.Entries = make([]Entry, len(p.Experience))
		for i, e := range p.Experience {
			b.Entries[i] = newEntry(e.ID, e.Role, e.Company, e.StartDate, e.EndDate, e.Current, e.Description)
		}
	case SectionEducation:
		b.Entries = make([]Entry, len(p.Education))
		for i, e := range p.Education {
			b.Entries[i] = newEntry(e.ID, e.Degree, e.School, e.StartDate, e.EndDate, e.Current, e.Description)
		}
	case SectionSkills:
		b.Skills = append([]string(nil), p.Skills...)
	}
}

func newEntry(id, title, org, start, end string, current bool, desc string) Entry {
	if current {
		end = PresentLabel
	}
	return Entry{
		ID:           id,
		Title:        title,
		Organization: org,
		StartDate:    start,
		EndDate:      end,
		Period:       period(start, end),
		Description:  desc,
	}
}

// period renders "Jan 2020 - Present". A missing side is omitted.
func period(start, end string) string {
	from := timeutil.FormatYearMonth(start)
	to := end
	if end != PresentLabel {
		to = timeutil.FormatYearMonth(end)
	}
	switch {
	case from == "":
		return to
	case to == "":
		return from
	default:
		return from + " - " + to
	}
}

// ContactLinks maps each non-empty contact field to its link, in a fixed order.
func ContactLinks(p profile.Profile) []ContactLink {
	var links []ContactLink
	if p.Email != "" {
		links = append(links, ContactLink{Kind: "email", Label: p.Email, Href: "mailto:" + p.Email})
	}
	if p.Website != "" {
		links = append(links, ContactLink{Kind: "website", Label: p.Website, Href: websiteURL(p.Website)})
	}
	if p.GitHub != "" {
		links = append(links, ContactLink{Kind: "github", Label: "GitHub: " + p.GitHub, Href: "https://github.com/" + p.GitHub})
	}
	if p.LinkedIn != "" {
		links = append(links, ContactLink{Kind: "linkedin", Label: "LinkedIn: " + p.LinkedIn, Href: "https://linkedin.com/in/" + p.LinkedIn})
	}
	if p.Twitter != "" {
		links = append(links, ContactLink{Kind: "twitter", Label: "Twitter: @" + p.Twitter, Href: "https://twitter.com/" + p.Twitter})
	}
	return links
}

func websiteURL(s string) string {
	if strings.HasPrefix(s, "http") {
		return s
	}
	return "https://" + s
}
