package scrub

import "strings"

// Districts lists the administrative districts of Warsaw. Listings outside
// these districts are not part of the study.
var Districts = []string{
	"Bemowo", "Białołęka", "Bielany", "Mokotów", "Ochota",
	"Praga-Południe", "Praga-Północ", "Rembertów", "Śródmieście",
	"Targówek", "Ursus", "Ursynów", "Wawer", "Wesoła",
	"Wilanów", "Włochy", "Wola", "Żoliborz",
}

var districtSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Districts))
	for _, district := range Districts {
		set[district] = struct{}{}
	}
	return set
}()

// FindDistrict scans a comma-separated location string for a Warsaw district
// name and returns it, or "" when no part matches.
func FindDistrict(location string) string {
	for _, part := range strings.Split(location, ",") {
		part = strings.TrimSpace(part)
		if _, ok := districtSet[part]; ok {
			return part
		}
	}
	return ""
}

// KnownDistrict reports whether the name is one of the Warsaw districts.
func KnownDistrict(name string) bool {
	_, ok := districtSet[strings.TrimSpace(name)]
	return ok
}
