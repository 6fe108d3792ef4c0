package runner

import (
	"strings"
	"unicode/utf8"
)

// DescribeToolUse renders a tool_use block as a one-line summary such as
// "● Read main.go" for the output log.
func DescribeToolUse(block ContentBlock) string {
	text := "● " + block.Name
	if detail := toolDetail(block.Name, block.Input); detail != "" {
		text += " " + detail
	}
	return text
}

// toolDetail extracts a meaningful detail string from tool input
func toolDetail(name string, input map[string]any) string {
	if len(input) == 0 {
		return ""
	}

	switch name {
	case "Read", "Write", "Edit":
		if fp, ok := input["file_path"].(string); ok {
			return fp
		}
	case "Bash":
		if cmd, ok := input["command"].(string); ok {
			return truncate(cmd, 60)
		}
		if desc, ok := input["description"].(string); ok {
			return desc
		}
	case "Grep":
		if pattern, ok := input["pattern"].(string); ok {
			detail := "\"" + pattern + "\""
			if path, ok := input["path"].(string); ok {
				detail += " in " + path
			}
			return detail
		}
	case "Glob":
		if pattern, ok := input["pattern"].(string); ok {
			return pattern
		}
	case "Task":
		if desc, ok := input["description"].(string); ok {
			return desc
		}
	case "TodoWrite":
		return "updating tasks"
	case "WebFetch":
		if url, ok := input["url"].(string); ok {
			return url
		}
	case "WebSearch":
		if query, ok := input["query"].(string); ok {
			return "\"" + query + "\""
		}
	}

	// Fallback: try common field names
	if fp, ok := input["file_path"].(string); ok {
		return fp
	}
	if pattern, ok := input["pattern"].(string); ok {
		return "\"" + pattern + "\""
	}
	if desc, ok := input["description"].(string); ok {
		return desc
	}
	return ""
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx] + "..."
	}
	if utf8.RuneCountInString(s) > max {
		return string([]rune(s)[:max]) + "..."
	}
	return s
}
