package utils

import "regexp"

var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9_.~-]{2,30})`)

// ExtractMentionHandles scans note content for @handle tokens and
// returns the distinct handles in order of first appearance.
func ExtractMentionHandles(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	handles := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		handles = append(handles, m[1])
	}
	return handles
}
