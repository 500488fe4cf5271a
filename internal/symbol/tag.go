package symbol

import "strings"

// systemPrefixes are checked in order; the first match wins.
var systemPrefixes = []string{
	"/apex/",
	"/system/",
	"/vendor/",
}

// Tag classifies the binary at path. Paths under a system partition collapse
// into a wildcard tag such as "/system/*", any other path is its own tag. An
// empty path has no tag.
func Tag(path string) string {
	if path == "" {
		return ""
	}
	for _, p := range systemPrefixes {
		if strings.HasPrefix(path, p) {
			return p + "*"
		}
	}
	return path
}
