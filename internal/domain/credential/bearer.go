package credential

import "strings"

const bearerPrefix = "Bearer "

// ExtractBearerToken returns the token carried by an Authorization header.
// The prefix match is case-sensitive. A header of exactly "Bearer " yields an
// empty token with ok set; callers must reject it.
func ExtractBearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return strings.Replace(header, bearerPrefix, "", 1), true
}
