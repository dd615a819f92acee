package coordination

import "strings"

// extractInfoField pulls the value of a "key:value\r\n" line out of a
// Redis INFO response, returning "" if the field is absent.
func extractInfoField(info, field string) string {
	for _, line := range strings.Split(info, "\r\n") {
		if !strings.HasPrefix(line, field+":") {
			continue
		}
		return strings.TrimPrefix(line, field+":")
	}
	return ""
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
