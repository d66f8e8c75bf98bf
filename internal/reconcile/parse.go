package reconcile

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	// S##E## with an optional space between season and episode.
	episodeTokenPattern  = regexp.MustCompile(`(?i)S\d{2} ?E\d{2}`)
	episodePrefixPattern = regexp.MustCompile(`(?i)^(.*?)(S\d{2} ?E\d{2})`)
	episodeLeadPattern   = regexp.MustCompile(`(?i)^S\d{2} ?E\d{2}`)
	seasonNumberPattern  = regexp.MustCompile(`(?i)S(\d{2}) ?E(\d{2})`)
	seasonFolderPattern  = regexp.MustCompile(`(?i)Seasons?`)

	folderSeasonTail = regexp.MustCompile(`(?i)\s*(S\d{2}.*|Season \d+).*`)

	folderYearParen = regexp.MustCompile(`\((\d{4})\)`)
	folderYearDots  = regexp.MustCompile(`\.(\d{4})\.`)
	trailYearParen  = regexp.MustCompile(`\((\d{4})\)$`)
	trailYearBare   = regexp.MustCompile(`(\d{4})$`)

	resolutionPattern = regexp.MustCompile(`(?i)(\d{3,4}p)`)

	sanitizePattern = regexp.MustCompile(`[^a-zA-Z0-9\s.]`)

	doubleDashPattern   = regexp.MustCompile(` - - `)
	multiSpacePattern   = regexp.MustCompile(` +`)
	trailingDashPattern = regexp.MustCompile(` -$`)
)

// episodeRef is one parsed S##E## token.
type episodeRef struct {
	Season  int
	Episode int
}

// Token renders the normalized episode identifier, e.g. "S01E02".
func (e episodeRef) Token() string {
	return fmt.Sprintf("S%02dE%02d", e.Season, e.Episode)
}

// SeasonFolder renders the season directory name with no zero padding.
func (e episodeRef) SeasonFolder() string {
	return fmt.Sprintf("Season %d", e.Season)
}

// parseEpisodeToken extracts the season/episode reference from a filename,
// false when no token is present.
func parseEpisodeToken(filename string) (episodeRef, bool) {
	m := seasonNumberPattern.FindStringSubmatch(filename)
	if m == nil {
		return episodeRef{}, false
	}
	season, err := strconv.Atoi(m[1])
	if err != nil {
		return episodeRef{}, false
	}
	episode, err := strconv.Atoi(m[2])
	if err != nil {
		return episodeRef{}, false
	}
	return episodeRef{Season: season, Episode: episode}, true
}

// hasEpisodeToken reports whether a filename contains an S##E## marker.
func hasEpisodeToken(filename string) bool {
	return episodeTokenPattern.MatchString(filename)
}

// isSeasonFolderName reports whether a folder name carries a Season marker.
func isSeasonFolderName(folderName string) bool {
	return seasonFolderPattern.MatchString(folderName)
}

// deriveShowName extracts the show name for a file carrying an episode
// token: from the folder name when the filename starts with the token,
// otherwise from the text preceding the token in the filename.
func deriveShowName(filename, folderName string) string {
	var name string
	if episodeLeadPattern.MatchString(filename) {
		name = folderSeasonTail.ReplaceAllString(folderName, "")
		name = strings.NewReplacer("-", " ", ".", " ").Replace(name)
	} else if m := episodePrefixPattern.FindStringSubmatch(filename); m != nil {
		name = strings.ReplaceAll(m[1], ".", " ")
	}
	return sanitizeShowName(strings.TrimSpace(name))
}

// sanitizeShowName replaces every character except letters, digits, spaces,
// and periods with a space.
func sanitizeShowName(name string) string {
	return strings.TrimSpace(sanitizePattern.ReplaceAllString(name, " "))
}

// extractFolderYear pulls a year out of a folder name, in parentheses or
// between separator dots. 0 when absent.
func extractFolderYear(folderName string) int {
	if m := folderYearParen.FindStringSubmatch(folderName); m != nil {
		year, _ := strconv.Atoi(m[1])
		return year
	}
	if m := folderYearDots.FindStringSubmatch(folderName); m != nil {
		year, _ := strconv.Atoi(m[1])
		return year
	}
	return 0
}

// extractTrailingYear pulls a year off the end of a show name. 0 when absent.
func extractTrailingYear(name string) int {
	name = strings.TrimSpace(name)
	if m := trailYearParen.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[1])
		return year
	}
	if m := trailYearBare.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[1])
		return year
	}
	return 0
}

// stripTrailingYear removes a trailing "(YYYY)" or bare year from a name.
func stripTrailingYear(name string) string {
	name = trailYearParen.ReplaceAllString(strings.TrimSpace(name), "")
	name = trailYearBare.ReplaceAllString(strings.TrimSpace(name), "")
	return strings.TrimSpace(name)
}

// extractResolutionToken finds an explicit resolution token, preferring the
// parent folder name over the filename. Empty when neither carries one.
func extractResolutionToken(name, parentFolderName string) string {
	if parentFolderName != "" {
		if m := resolutionPattern.FindStringSubmatch(parentFolderName); m != nil {
			return m[1]
		}
	}
	if m := resolutionPattern.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return ""
}

// cleanFilename collapses doubled separators, repeated spaces, and trailing
// dashes left over from name assembly.
func cleanFilename(filename string) string {
	filename = doubleDashPattern.ReplaceAllString(filename, " - ")
	filename = multiSpacePattern.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)
	filename = trailingDashPattern.ReplaceAllString(filename, "")
	return filename
}

// folderKey builds the processed-folder key from a directory path: the
// parent folder name joined with the folder name.
func folderKey(dir string) string {
	return filepath.Join(filepath.Base(filepath.Dir(dir)), filepath.Base(dir))
}
