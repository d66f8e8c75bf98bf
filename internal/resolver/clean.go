package resolver

import (
	"regexp"
	"strconv"
	"strings"
)

// Noise patterns that mark the end of the usable title portion of a name.
// The query is truncated at the earliest occurrence of any of them.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(\d{4}\)`),              // year in parentheses
	regexp.MustCompile(`\b\d{4}\b`),              // bare year
	regexp.MustCompile(`(?i)S\d{2}`),             // season marker
	regexp.MustCompile(`(?i)E\d{2}`),             // episode marker
	regexp.MustCompile(`(?i)\d{1,2}x\d{2}`),      // 1x01 episode format
	regexp.MustCompile(`(?i)Season \d+`),         // spelled-out season
	regexp.MustCompile(`(?i)\d{3,4}p`),           // resolution
	regexp.MustCompile(`(?i)BluRay|BDRip|BRRip`), // source
	regexp.MustCompile(`(?i)WEB-?DL|WEBRip`),     // source
	regexp.MustCompile(`(?i)HDTV`),               // source
	regexp.MustCompile(`(?i)x\d{3,4}`),           // codec
	regexp.MustCompile(`(?i)HEVC`),               // codec
	regexp.MustCompile(`(?i)\d{1,2}bit`),         // bit depth
	regexp.MustCompile(`(?i)AAC`),                // audio codec
	regexp.MustCompile(`(?i)REMUX`),              // remux marker
	regexp.MustCompile(`(?i)Complete`),           // boxset marker
	regexp.MustCompile(`(?i)Extras`),             // extras marker
	regexp.MustCompile(`\[`),                     // bracket opener
	regexp.MustCompile(`\(`),                     // paren opener
}

var (
	yearParenPattern = regexp.MustCompile(`\((\d{4})\)`)
	yearBarePattern  = regexp.MustCompile(`\b(\d{4})\b`)
	separatorPattern = regexp.MustCompile(`[._-]`)
	spacesPattern    = regexp.MustCompile(`\s+`)
)

// CleanQuery extracts a 4-digit year as a side channel, truncates the name
// at the earliest noise token, and collapses separator punctuation to single
// spaces.
func CleanQuery(query string) (string, int) {
	year := 0
	if m := yearParenPattern.FindStringSubmatch(query); m != nil {
		year, _ = strconv.Atoi(m[1])
	} else if m := yearBarePattern.FindStringSubmatch(query); m != nil {
		year, _ = strconv.Atoi(m[1])
	}

	earliest := len(query)
	for _, pattern := range noisePatterns {
		if loc := pattern.FindStringIndex(query); loc != nil && loc[0] < earliest {
			earliest = loc[0]
		}
	}
	cleaned := strings.TrimSpace(query[:earliest])

	cleaned = separatorPattern.ReplaceAllString(cleaned, " ")
	cleaned = spacesPattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned), year
}
