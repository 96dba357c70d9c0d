package usecase

import (
	"strings"
	"unicode"
)

// NameParts are the campaign-level inputs to generated names.
type NameParts struct {
	Prefix    string
	Platform  string
	Month     string
	Day       string
	Objective string
	TestType  string
}

// Names are the three generated names of one record.
type Names struct {
	Campaign string
	AdSet    string
	Ad       string
}

// ResolveNames derives campaign, ad set and ad names for a location.
// Ad and ad set names are identical.
func ResolveNames(parts NameParts, locationName string) Names {
	segments := []string{parts.Prefix, parts.Platform, parts.Month + parts.Day}
	if parts.Objective != "" {
		segments = append(segments, parts.Objective)
	}
	if parts.TestType != "" {
		segments = append(segments, parts.TestType)
	}
	segments = append(segments, StripWhitespace(locationName))

	campaign := strings.Join(segments, "_")
	adSet := campaign + "_" + parts.Month

	return Names{
		Campaign: campaign,
		AdSet:    adSet,
		Ad:       adSet,
	}
}

// ResolveNamesPtr is ResolveNames for a possibly missing location name.
func ResolveNamesPtr(parts NameParts, locationName *string) Names {
	if locationName == nil {
		return ResolveNames(parts, "")
	}
	return ResolveNames(parts, *locationName)
}

// StripWhitespace removes every whitespace rune.
func StripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Slug lower-cases the name and collapses runs of non-alphanumerics into single hyphens.
func Slug(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		if r == '\'' {
			continue
		}
		pendingDash = true
	}
	return b.String()
}
