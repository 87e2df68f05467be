// Package export renders an analysis result into interchange formats:
// JSON (full result), CSV (claims), SRT and VTT (subtitles).
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

// Format identifies a supported export format
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
)

// ContentType returns the MIME type served for a format
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatSRT:
		return "application/x-subrip"
	case FormatVTT:
		return "text/vtt"
	}
	return "application/octet-stream"
}

// ParseFormat validates a format string from the URL
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatSRT:
		return FormatSRT, nil
	case FormatVTT:
		return FormatVTT, nil
	}
	return "", fmt.Errorf("unsupported export format: %s", s)
}

// Write renders result in the given format
func Write(w io.Writer, format Format, result *models.AnalysisResult) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case FormatCSV:
		return writeCSV(w, result)
	case FormatSRT:
		return writeSRT(w, result)
	case FormatVTT:
		return writeVTT(w, result)
	}
	return fmt.Errorf("unsupported export format: %s", format)
}

// writeCSV emits one row per claim, with verification status when available
func writeCSV(w io.Writer, result *models.AnalysisResult) error {
	verdicts := make(map[string]models.Verification, len(result.Verifications))
	for _, v := range result.Verifications {
		verdicts[v.ClaimID] = v
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"claim_id", "speaker", "start", "end", "text", "type", "status", "confidence"}); err != nil {
		return err
	}
	for _, claim := range result.Claims {
		status := ""
		confidence := claim.Confidence
		if v, ok := verdicts[claim.ID]; ok {
			status = v.Status
			confidence = v.Confidence
		}
		row := []string{
			claim.ID,
			claim.Speaker,
			strconv.FormatFloat(claim.Start, 'f', 3, 64),
			strconv.FormatFloat(claim.End, 'f', 3, 64),
			claim.Text,
			claim.Type,
			status,
			strconv.FormatFloat(confidence, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeSRT(w io.Writer, result *models.AnalysisResult) error {
	for i, seg := range result.Transcript.Segments {
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s: %s\n\n",
			i+1,
			srtTimestamp(seg.Start),
			srtTimestamp(seg.End),
			seg.Speaker,
			seg.Text,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeVTT(w io.Writer, result *models.AnalysisResult) error {
	if _, err := io.WriteString(w, "WEBVTT\n\n"); err != nil {
		return err
	}
	for _, seg := range result.Transcript.Segments {
		_, err := fmt.Fprintf(w, "%s --> %s\n<v %s>%s\n\n",
			vttTimestamp(seg.Start),
			vttTimestamp(seg.End),
			seg.Speaker,
			seg.Text,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// srtTimestamp formats seconds as HH:MM:SS,mmm
func srtTimestamp(seconds float64) string {
	h, m, s, ms := splitTimestamp(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// vttTimestamp formats seconds as HH:MM:SS.mmm
func vttTimestamp(seconds float64) string {
	h, m, s, ms := splitTimestamp(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func splitTimestamp(seconds float64) (h, m, s, ms int) {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int(math.Round(seconds * 1000))
	ms = totalMs % 1000
	total := totalMs / 1000
	h = total / 3600
	m = (total % 3600) / 60
	s = total % 60
	return
}
