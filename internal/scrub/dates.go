package scrub

import (
	"strings"
	"time"
)

// markers found in the raw announcement-date blob captured by the scraper.
const (
	addedMarker  = "Dodano:"
	updateMarker = "Aktualizacja:"
)

// ExtractAddedDate pulls the advertisement creation date out of the raw
// announcement text. The scraper stores a multi-line blob with a
// "Dodano: <date>" line.
func ExtractAddedDate(announcement string) string {
	return extractMarkedValue(announcement, addedMarker)
}

// ExtractUpdateDate pulls the last-update date out of the raw announcement
// text, from its "Aktualizacja: <date>" line.
func ExtractUpdateDate(announcement string) string {
	return extractMarkedValue(announcement, updateMarker)
}

func extractMarkedValue(announcement, marker string) string {
	for _, line := range splitAnnouncementLines(announcement) {
		idx := strings.Index(line, marker)
		if idx < 0 {
			continue
		}
		value := line[idx+len(marker):]
		return strings.Trim(value, " \t'\"()")
	}
	return ""
}

// splitAnnouncementLines handles both real newlines and the literal "\n"
// sequences left behind when the scraper serialized the blob.
func splitAnnouncementLines(announcement string) []string {
	announcement = strings.ReplaceAll(announcement, `\n`, "\n")
	return strings.Split(announcement, "\n")
}

// ParseAdDate converts a scraped date in DD.MM.YYYY, YYYY_MM_DD or
// YYYY-MM-DD form. Unrecognized values return the zero time.
func ParseAdDate(value string) time.Time {
	value = strings.TrimSpace(value)
	switch {
	case strings.Contains(value, "."):
		if t, err := time.Parse("02.01.2006", value); err == nil {
			return t
		}
	case strings.Contains(value, "_"):
		if t, err := time.Parse("2006_01_02", value); err == nil {
			return t
		}
	case strings.Contains(value, "-"):
		if t, err := time.Parse("2006-01-02", value); err == nil {
			return t
		}
	}
	return time.Time{}
}
