// Package language lists the recognition models the speech API accepts.
// Codes are Baidu dev_pid values; each maps to a display name and a BCP 47 tag.
package language

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

const Default = "1537"

type entry struct {
	code    string
	display string
	tag     language.Tag
}

var models = []entry{
	{"1537", "Mandarin Chinese", language.MustParse("zh-CN")},
	{"1737", "English", language.English},
	{"1637", "Cantonese", language.MustParse("yue")},
	{"1837", "Sichuanese", language.MustParse("zh-CN")},
	{"1936", "Mandarin Chinese (far-field)", language.MustParse("zh-CN")},
}

var byCode map[string]*entry

func init() {
	byCode = make(map[string]*entry, len(models))
	for i := range models {
		byCode[models[i].code] = &models[i]
	}
}

func normalize(code string) string { return strings.TrimSpace(code) }

// Known reports whether code is a supported model identifier.
func Known(code string) bool {
	_, ok := byCode[normalize(code)]
	return ok
}

// DisplayName returns the human-readable name for code, or "Unknown".
func DisplayName(code string) string {
	if e, ok := byCode[normalize(code)]; ok {
		return e.display
	}
	return "Unknown"
}

// Tag returns the BCP 47 tag of the language spoken for code.
func Tag(code string) language.Tag {
	if e, ok := byCode[normalize(code)]; ok {
		return e.tag
	}
	return language.Und
}

// Code is one row of the supported-languages listing.
type Code struct {
	Code    string
	Display string
	Tag     string
}

// Codes returns every supported model sorted by code.
func Codes() []Code {
	out := make([]Code, 0, len(models))
	for _, e := range models {
		out = append(out, Code{Code: e.code, Display: e.display, Tag: e.tag.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
