package pipeline

import (
	"regexp"

	"github.com/google/uuid"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

// claimPattern flags segments that assert something checkable: numbers,
// quantities, or copula statements.
var claimPattern = regexp.MustCompile(`(?i)\b(\d+|percent|porcentaje|millones|miles|million|thousand|is|are|was|were|es|son|fue|eran)\b`)

// ExtractClaims scans the transcript for checkable assertions. Each claim
// carries the neighbouring segment texts as context for the verifier.
func ExtractClaims(transcript models.Transcript) []models.Claim {
	var claims []models.Claim
	segments := transcript.Segments
	for i, segment := range segments {
		if !claimPattern.MatchString(segment.Text) {
			continue
		}
		claim := models.Claim{
			ID:         uuid.New().String(),
			Speaker:    segment.Speaker,
			Start:      segment.Start,
			End:        segment.End,
			Text:       segment.Text,
			Type:       "statement",
			Confidence: 0.55,
		}
		if i > 0 {
			claim.ContextBefore = segments[i-1].Text
		}
		if i+1 < len(segments) {
			claim.ContextAfter = segments[i+1].Text
		}
		claims = append(claims, claim)
	}
	return claims
}
