package alsa

import (
	"strings"
)

// minDelimiterRun is the number of dashes aplay prints around the hw-params block.
const minDelimiterRun = 20

// isolateDumpBlock returns the lines between the first two dash delimiter
// lines of a --dump-hw-params report. ok is false when no complete block
// exists, e.g. the device was busy and aplay bailed out before dumping.
func isolateDumpBlock(output string) (lines []string, ok bool) {
	inBlock := false
	for _, line := range strings.Split(output, "\n") {
		if isDelimiter(line) {
			if inBlock {
				return lines, true
			}
			inBlock = true
			continue
		}
		if inBlock {
			lines = append(lines, line)
		}
	}
	return nil, false
}

func isDelimiter(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < minDelimiterRun {
		return false
	}
	return strings.Trim(trimmed, "-") == ""
}

// parseDumpLines turns "KEY: value" lines into params seeded with defaults.
// Lines without a colon, or with an empty key or value, are skipped.
func parseDumpLines(lines []string) DeviceParams {
	params := NewDeviceParams()
	for _, line := range lines {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		params[CamelKey(key)] = ParseValue(value)
	}
	return params
}

// ParseDump extracts device params from raw --dump-hw-params output.
func ParseDump(output string) (DeviceParams, bool) {
	lines, ok := isolateDumpBlock(output)
	if !ok {
		return nil, false
	}
	return parseDumpLines(lines), true
}
