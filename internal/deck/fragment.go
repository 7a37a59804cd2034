package deck

import (
	"strconv"
	"strings"
	"unicode"
)

// Fragment formats a zero-based index as its one-based URL fragment
func Fragment(index int) string {
	return "#" + strconv.Itoa(index+1)
}

// ParseFragment reads a one-based slide number from a URL fragment and
// returns the zero-based index. Like a browser's parseInt, leading
// whitespace and a sign are accepted and trailing garbage is ignored
// ("#3abc" is slide 3). Values outside [1, total] are rejected.
func ParseFragment(fragment string, total int) (int, bool) {
	raw := strings.Replace(fragment, "#", "", 1)
	raw = strings.TrimLeftFunc(raw, unicode.IsSpace)

	end := 0
	if end < len(raw) && (raw[end] == '+' || raw[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}

	num, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0, false
	}
	if num < 1 || num > total {
		return 0, false
	}
	return num - 1, true
}
