package paper

import (
	"reflect"
	"testing"
)

func TestKindLayout(t *testing.T) {
	tests := []struct {
		kind   Kind
		folder string
		suffix string
	}{
		{KindPresentation, "Presentations", "_talk"},
		{KindPaper, "Papers", ""},
		{KindPoster, "Posters", "_poster"},
	}

	for _, tt := range tests {
		if got := tt.kind.Folder(); got != tt.folder {
			t.Errorf("%s.Folder() = %q, want %q", tt.kind, got, tt.folder)
		}
		if got := tt.kind.FileSuffix(); got != tt.suffix {
			t.Errorf("%s.FileSuffix() = %q, want %q", tt.kind, got, tt.suffix)
		}
	}
}

func TestURLAndAvailableByKind(t *testing.T) {
	p := Paper{
		PresentationURL:       "https://example.org/talk.pdf",
		PaperURL:              "https://example.org/paper.pdf",
		PosterURL:             "https://example.org/poster.pdf",
		PaperAvailable:        true,
		PresentationAvailable: false,
		PosterAvailable:       true,
	}

	for _, k := range Kinds() {
		want := map[Kind]string{
			KindPresentation: p.PresentationURL,
			KindPaper:        p.PaperURL,
			KindPoster:       p.PosterURL,
		}[k]
		if got := p.URL(k); got != want {
			t.Errorf("URL(%s) = %q, want %q", k, got, want)
		}
	}
	if p.Available(KindPresentation) || !p.Available(KindPaper) || !p.Available(KindPoster) {
		t.Errorf("Available mismatch: %+v", p)
	}
}

func TestAddInstitution(t *testing.T) {
	var p Paper
	p.AddInstitution("CERN")
	p.AddInstitution("Fermilab")
	p.AddInstitution("CERN") // duplicate
	p.AddInstitution("")     // empty

	want := []string{"CERN", "Fermilab"}
	if !reflect.DeepEqual(p.Institutions, want) {
		t.Errorf("Institutions = %v, want %v", p.Institutions, want)
	}
}
