package provideradapter

import "strings"

// evidenceMarkers are matched case-insensitively against each line of a
// response's content; a hit emits a text_evidence EvidenceItem.
var evidenceMarkers = []string{"evidence:", "**evidence**", "proof:", "file:", "command:"}

// extractEvidence scans content line by line for evidence markers.
func extractEvidence(content string) []EvidenceItem {
	var items []EvidenceItem
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, marker := range evidenceMarkers {
			if strings.Contains(lower, marker) {
				items = append(items, EvidenceItem{
					Type:    "text_evidence",
					Line:    i + 1,
					Content: strings.TrimSpace(line),
				})
				break
			}
		}
	}
	return items
}

var successMarkers = []string{"status: success", "success:", "completed successfully"}
var failureMarkers = []string{"status: failure", "failed:", "error:", "unable to"}

// assessSuccess decides whether content represents a successful agent
// response: an explicit success marker wins, then an explicit failure
// marker, and otherwise a response longer than 100 characters (after
// trimming) is treated as substantive enough to count as success.
func assessSuccess(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range successMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, marker := range failureMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return len(strings.TrimSpace(content)) > 100
}
