package report

import "github.com/iuming/NAPAC2025-scraper/internal/paper"

// Stats holds the run-wide counters. All counters are increment-only and
// confined to a single run; the scraper is sequential, so no locking.
type Stats struct {
	SessionsProcessed       int `json:"sessions_processed"`
	TotalPapers             int `json:"total_papers"`
	DownloadedPresentations int `json:"downloaded_presentations"`
	DownloadedPapers        int `json:"downloaded_papers"`
	DownloadedPosters       int `json:"downloaded_posters"`
	Errors                  int `json:"errors"`
}

// AddError counts one error.
func (s *Stats) AddError() {
	s.Errors++
}

// AddSession counts one processed session carrying n papers.
func (s *Stats) AddSession(n int) {
	s.SessionsProcessed++
	s.TotalPapers += n
}

// AddDownloaded counts one successful download of the given kind.
func (s *Stats) AddDownloaded(k paper.Kind) {
	switch k {
	case paper.KindPresentation:
		s.DownloadedPresentations++
	case paper.KindPoster:
		s.DownloadedPosters++
	default:
		s.DownloadedPapers++
	}
}

// Downloaded returns the download counter for a kind.
func (s *Stats) Downloaded(k paper.Kind) int {
	switch k {
	case paper.KindPresentation:
		return s.DownloadedPresentations
	case paper.KindPoster:
		return s.DownloadedPosters
	default:
		return s.DownloadedPapers
	}
}
