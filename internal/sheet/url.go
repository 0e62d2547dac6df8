// Package sheet talks to the spreadsheet-backed remote store: it normalizes
// endpoint URLs, converts records to and from positional wire rows, and runs
// load/save requests against the sheet web app.
package sheet

import "strings"

const (
	execSuffix = "/exec"
	devSuffix  = "/dev"
	editMarker = "/edit"
)

// Normalize turns whatever the user pasted (an editor link, a URL with a query
// string, a bare deployment path) into a callable execution URL. It never fails;
// malformed input yields a best-effort string. Normalize is idempotent.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if p := pathStart(s); p < len(s) {
		if i := strings.Index(s[p:], editMarker); i >= 0 {
			s = s[:p+i] + execSuffix
		}
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}

	if strings.HasSuffix(s, execSuffix) || strings.HasSuffix(s, devSuffix) {
		return s
	}
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s + strings.TrimPrefix(execSuffix, "/")
}

// pathStart returns the index where the path begins, past any scheme and host.
func pathStart(s string) int {
	i := strings.Index(s, "://")
	if i < 0 {
		return 0
	}
	host := i + len("://")
	if j := strings.IndexByte(s[host:], '/'); j >= 0 {
		return host + j
	}
	return len(s)
}
