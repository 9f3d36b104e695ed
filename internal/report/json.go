package report

import (
	"encoding/json"
	"fmt"

	"github.com/peekknuf/sage/internal/engine"
)

// RenderJSON produces a pretty-printed JSON representation of the result.
// The output round-trips through json.Unmarshal back to an equal result.
func RenderJSON(result *engine.GradeResult) ([]byte, error) {
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: json marshal: %w", err)
	}
	return append(b, '\n'), nil
}
