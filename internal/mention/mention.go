// Package mention finds account-name references in free text.
package mention

import (
	"regexp"
	"strings"
)

// accountPattern matches "account 'Name'", "Account Name Words", "'Name' account"
// and "Name Words account". Only capitalized tokens are recognized.
var accountPattern = regexp.MustCompile(
	`([aA]ccount '[A-Z][\w\s]*')` +
		`|([aA]ccount ([A-Z]\w*\s*)+)` +
		`|('[A-Z][\w\s]*' [aA]ccount)` +
		`|(([A-Z]\w*\s*)+ account)`,
)

var accountWord = regexp.MustCompile(`[aA]ccount`)

// Extract returns the account names mentioned in text in order of appearance.
// Duplicates are kept. It returns nil when nothing matches.
func Extract(text string) []string {
	matches := accountPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, normalize(match))
	}
	return names
}

func normalize(match string) string {
	name := accountWord.ReplaceAllString(match, "")
	name = strings.ReplaceAll(name, "'", " ")
	return strings.TrimSpace(name)
}
