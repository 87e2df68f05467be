package pipeline

import (
	"github.com/ErikING-Chile/fast-check/pkg/models"
	"github.com/ErikING-Chile/fast-check/pkg/packs"
)

// Searcher is the pack lookup a verification run needs
type Searcher interface {
	Search(query string, k int) []packs.Match
}

// VerifyClaims checks each claim against the pack index. Claims with no
// matching excerpts are marked insufficient rather than dropped.
func VerifyClaims(claims []models.Claim, index Searcher) []models.Verification {
	verifications := make([]models.Verification, 0, len(claims))
	for _, claim := range claims {
		matches := index.Search(claim.Text, 5)
		if len(matches) == 0 {
			verifications = append(verifications, models.Verification{
				ClaimID:    claim.ID,
				Status:     "insufficient",
				Confidence: 0.2,
				Citations:  []models.Citation{},
			})
			continue
		}
		citations := make([]models.Citation, 0, len(matches))
		for _, match := range matches {
			citations = append(citations, models.Citation{
				SourceTitle:  match.Title,
				SourceRef:    match.Source,
				SnapshotDate: match.SnapshotDate,
				Excerpt:      match.Excerpt,
			})
		}
		verifications = append(verifications, models.Verification{
			ClaimID:    claim.ID,
			Status:     "supported",
			Confidence: 0.6,
			Citations:  citations,
		})
	}
	return verifications
}
