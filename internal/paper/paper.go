// Package paper defines the contribution record data model shared by the
// extraction engine, the downloader and the reporting layer.
package paper

// Kind identifies one of the downloadable artifact types attached to a
// contribution.
type Kind string

const (
	KindPresentation Kind = "presentation"
	KindPaper        Kind = "paper"
	KindPoster       Kind = "poster"
)

// Kinds lists all artifact kinds in the order they are reported.
func Kinds() []Kind {
	return []Kind{KindPresentation, KindPaper, KindPoster}
}

// Folder returns the output folder name for a kind.
func (k Kind) Folder() string {
	switch k {
	case KindPresentation:
		return "Presentations"
	case KindPoster:
		return "Posters"
	default:
		return "Papers"
	}
}

// FileSuffix returns the filename suffix appended to the contribution id
// for a kind, e.g. MOP001_talk.pdf for a presentation.
func (k Kind) FileSuffix() string {
	switch k {
	case KindPresentation:
		return "_talk"
	case KindPoster:
		return "_poster"
	default:
		return ""
	}
}

// Paper is a single conference contribution extracted from a session page.
// The JSON field names match the serialized export schema.
type Paper struct {
	ID           string   `json:"paper_id"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	Institutions []string `json:"institutions"`
	Abstract     string   `json:"abstract"`

	PresentationURL string `json:"presentation_url"`
	PaperURL        string `json:"paper_url"`
	PosterURL       string `json:"poster_url"`

	PresentationAvailable bool `json:"presentation_available"`
	PaperAvailable        bool `json:"paper_available"`
	PosterAvailable       bool `json:"poster_available"`

	DOI        string `json:"doi"`
	PageNumber string `json:"page_number"`
}

// URL returns the artifact URL for a kind.
func (p *Paper) URL(k Kind) string {
	switch k {
	case KindPresentation:
		return p.PresentationURL
	case KindPoster:
		return p.PosterURL
	default:
		return p.PaperURL
	}
}

// Available reports whether the artifact of the given kind was confirmed
// by a probe.
func (p *Paper) Available(k Kind) bool {
	switch k {
	case KindPresentation:
		return p.PresentationAvailable
	case KindPoster:
		return p.PosterAvailable
	default:
		return p.PaperAvailable
	}
}

// AddInstitution appends an institution unless the exact string is
// already present on this paper.
func (p *Paper) AddInstitution(name string) {
	if name == "" {
		return
	}
	for _, existing := range p.Institutions {
		if existing == name {
			return
		}
	}
	p.Institutions = append(p.Institutions, name)
}
