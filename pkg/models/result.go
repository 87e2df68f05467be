package models

// Segment is a timestamped span of transcript text attributed to one speaker
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
}

// Transcript is the ordered segment sequence produced by the pipeline
type Transcript struct {
	Segments []Segment `json:"segments"`
}

// Claim is an assertion extracted from the transcript
type Claim struct {
	ID            string  `json:"id"`
	Speaker       string  `json:"speaker"`
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	Text          string  `json:"text"`
	Type          string  `json:"type"`
	Confidence    float64 `json:"confidence"`
	ContextBefore string  `json:"context_before,omitempty"`
	ContextAfter  string  `json:"context_after,omitempty"`
}

// Citation points at a knowledge-pack excerpt supporting a verification
type Citation struct {
	SourceTitle  string `json:"source_title"`
	SourceRef    string `json:"source_ref"`
	SnapshotDate string `json:"snapshot_date,omitempty"`
	Page         int    `json:"page,omitempty"`
	Excerpt      string `json:"excerpt"`
}

// Verification is the fact-check outcome for one claim
type Verification struct {
	ClaimID    string     `json:"claim_id"`
	Status     string     `json:"status"` // "supported", "contradicted", "insufficient"
	Confidence float64    `json:"confidence"`
	Citations  []Citation `json:"citations"`
}

// JobMetadata is a faithful echo of the request plus the job id, never recomputed
type JobMetadata struct {
	JobID       string `json:"job_id"`
	VideoPath   string `json:"video_path"`
	Language    string `json:"language"`
	NumSpeakers *int   `json:"num_speakers"`
	PackName    string `json:"pack_name,omitempty"`
	Verify      bool   `json:"verify"`
}

// AnalysisResult is the immutable output of the pipeline. Attached to a job
// exactly once on completion; user corrections never touch it, they are
// layered on top at read time.
type AnalysisResult struct {
	Metadata      JobMetadata    `json:"metadata"`
	Transcript    Transcript     `json:"transcript"`
	Claims        []Claim        `json:"claims"`
	Verifications []Verification `json:"verifications"`
}

// Clone returns a fully detached copy of the result
func (r *AnalysisResult) Clone() *AnalysisResult {
	out := &AnalysisResult{Metadata: r.Metadata}
	if r.Metadata.NumSpeakers != nil {
		n := *r.Metadata.NumSpeakers
		out.Metadata.NumSpeakers = &n
	}
	if r.Transcript.Segments != nil {
		out.Transcript.Segments = make([]Segment, len(r.Transcript.Segments))
		copy(out.Transcript.Segments, r.Transcript.Segments)
	}
	if r.Claims != nil {
		out.Claims = make([]Claim, len(r.Claims))
		copy(out.Claims, r.Claims)
	}
	if r.Verifications != nil {
		out.Verifications = make([]Verification, len(r.Verifications))
		for i, v := range r.Verifications {
			cv := v
			if v.Citations != nil {
				cv.Citations = make([]Citation, len(v.Citations))
				copy(cv.Citations, v.Citations)
			}
			out.Verifications[i] = cv
		}
	}
	return out
}
