// SPDX-License-Identifier: MPL-2.0

package toolrun

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON decodes a tool's stdout into v when it looks like JSON.
// It returns (false, nil) for output that is plainly not JSON, so callers can
// fall back to treating the output as text. Output that starts like JSON but
// fails to parse is an error.
func DecodeJSON(result *Result, v any) (bool, error) {
	trimmed := strings.TrimSpace(result.Stdout)
	if trimmed == "" {
		return false, nil
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return false, nil
	}
	if err := json.Unmarshal([]byte(trimmed), v); err != nil {
		return false, fmt.Errorf("failed to decode tool output as JSON: %w", err)
	}
	return true, nil
}
