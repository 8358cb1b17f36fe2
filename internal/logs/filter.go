package logs

import (
	"encoding/json"
	"strings"
)

// MatchStage reports whether line was logged by stage. An empty stage
// matches everything. JSON lines are decoded; console lines are matched on
// their stage=<name> attribute.
func MatchStage(line, stage string) bool {
	stage = strings.ToLower(strings.TrimSpace(stage))
	if stage == "" {
		return true
	}
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var record struct {
			Stage string `json:"stage"`
		}
		if err := json.Unmarshal([]byte(trimmed), &record); err != nil {
			return false
		}
		return strings.EqualFold(record.Stage, stage)
	}
	for _, field := range strings.Fields(trimmed) {
		if value, ok := strings.CutPrefix(field, "stage="); ok {
			return strings.EqualFold(value, stage)
		}
	}
	return false
}
