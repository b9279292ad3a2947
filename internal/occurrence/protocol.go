package occurrence

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatProtocol renders the external id for the n-th occurrence.
// Numbers are zero padded to three digits and grow past 999 naturally.
func FormatProtocol(n int64, year int) string {
	return fmt.Sprintf("%03d/%d", n, year)
}

// ParseProtocol splits "NNN/YYYY" into its parts.
func ParseProtocol(id string) (n int64, year int, err error) {
	seq, yr, ok := strings.Cut(strings.TrimSpace(id), "/")
	if !ok {
		return 0, 0, fmt.Errorf("protocol %q: missing year", id)
	}
	n, err = strconv.ParseInt(seq, 10, 64)
	if err != nil || n < 1 {
		return 0, 0, fmt.Errorf("protocol %q: invalid sequence", id)
	}
	year, err = strconv.Atoi(yr)
	if err != nil || len(yr) != 4 {
		return 0, 0, fmt.Errorf("protocol %q: invalid year", id)
	}
	return n, year, nil
}
