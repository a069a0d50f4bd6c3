package providers

import (
	"regexp"
	"strconv"
	"strings"
)

var statusPattern = regexp.MustCompile(`(?i)status(?: code)?[:= ]+(\d{3})`)

// extractErrorMetadata digs an HTTP status out of an SDK error message when
// the SDK does not expose it as a field. Returns 0 when none is found.
func extractErrorMetadata(err error) (int, string) {
	if err == nil {
		return 0, ""
	}

	errStr := err.Error()
	var httpStatus int
	if m := statusPattern.FindStringSubmatch(errStr); m != nil {
		httpStatus, _ = strconv.Atoi(m[1])
	}

	body := errStr
	if idx := strings.Index(strings.ToLower(errStr), "message:"); idx != -1 {
		body = strings.TrimSpace(errStr[idx+len("message:"):])
	}
	return httpStatus, body
}
