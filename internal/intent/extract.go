package intent

import (
	"regexp"
	"slices"
	"strings"
)

var (
	// quotedPattern matches ASCII and CJK quote pairs.
	quotedPattern = regexp.MustCompile(`'([^']+)'|"([^"]+)"|“([^”]+)”|‘([^’]+)’|「([^」]+)」|『([^』]+)』|《([^》]+)》`)

	// codePattern matches identifiers that mix letters and digits, such as
	// BATCH-2024-001 or M1001.
	codePattern = regexp.MustCompile(`[A-Za-z][A-Za-z0-9]*(?:[-_][A-Za-z0-9]+)*|[0-9]+(?:[-_][A-Za-z0-9]+)+`)

	numberPattern = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
)

// ExtractParams pulls candidate template parameters out of free text, in
// priority order: quoted substrings, then letter-and-digit codes, then
// standalone numbers. Within each group values keep their order of
// appearance. Text consumed by an earlier group is not reused.
func ExtractParams(text string) []string {
	var params []string
	rest := []byte(text)

	for _, m := range quotedPattern.FindAllSubmatchIndex(rest, -1) {
		for g := 2; g < len(m); g += 2 {
			if m[g] >= 0 {
				params = append(params, string(rest[m[g]:m[g+1]]))
				break
			}
		}
	}
	rest = blank(rest, quotedPattern.FindAllIndex(rest, -1))

	codes := codePattern.FindAllIndex(rest, -1)
	var used [][]int
	for _, loc := range codes {
		code := string(rest[loc[0]:loc[1]])
		if hasDigit(code) && hasLetter(code) {
			params = append(params, code)
			used = append(used, loc)
		}
	}
	rest = blank(rest, used)

	for _, loc := range numberPattern.FindAllIndex(rest, -1) {
		params = append(params, string(rest[loc[0]:loc[1]]))
	}
	return params
}

// blank overwrites the given byte ranges with spaces so later patterns
// skip them.
func blank(b []byte, locs [][]int) []byte {
	if len(locs) == 0 {
		return b
	}
	out := slices.Clone(b)
	for _, loc := range locs {
		for i := loc[0]; i < loc[1]; i++ {
			out[i] = ' '
		}
	}
	return out
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
