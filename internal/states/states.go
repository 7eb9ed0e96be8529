// Package states holds the static US state table used to partition sync
// jobs and label taxonomy terms.
package states

import (
	"sort"
	"strings"

	"github.com/gosimple/slug"
)

var codeToName = map[string]string{
	"AL": "Alabama",
	"AK": "Alaska",
	"AZ": "Arizona",
	"AR": "Arkansas",
	"CA": "California",
	"CO": "Colorado",
	"CT": "Connecticut",
	"DE": "Delaware",
	"DC": "District of Columbia",
	"FL": "Florida",
	"GA": "Georgia",
	"HI": "Hawaii",
	"ID": "Idaho",
	"IL": "Illinois",
	"IN": "Indiana",
	"IA": "Iowa",
	"KS": "Kansas",
	"KY": "Kentucky",
	"LA": "Louisiana",
	"ME": "Maine",
	"MD": "Maryland",
	"MA": "Massachusetts",
	"MI": "Michigan",
	"MN": "Minnesota",
	"MS": "Mississippi",
	"MO": "Missouri",
	"MT": "Montana",
	"NE": "Nebraska",
	"NV": "Nevada",
	"NH": "New Hampshire",
	"NJ": "New Jersey",
	"NM": "New Mexico",
	"NY": "New York",
	"NC": "North Carolina",
	"ND": "North Dakota",
	"OH": "Ohio",
	"OK": "Oklahoma",
	"OR": "Oregon",
	"PA": "Pennsylvania",
	"RI": "Rhode Island",
	"SC": "South Carolina",
	"SD": "South Dakota",
	"TN": "Tennessee",
	"TX": "Texas",
	"UT": "Utah",
	"VT": "Vermont",
	"VA": "Virginia",
	"WA": "Washington",
	"WV": "West Virginia",
	"WI": "Wisconsin",
	"WY": "Wyoming",
}

// Codes returns every known state code in a stable order.
func Codes() []string {
	codes := make([]string, 0, len(codeToName))
	for code := range codeToName {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Name resolves a code to its display name, falling back to a
// title-cased form of the input for unknown codes.
func Name(code string) string {
	key := strings.ToUpper(strings.TrimSpace(code))
	if name, ok := codeToName[key]; ok {
		return name
	}
	return titleCase(code)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Resolve returns the display name and URL slug for a state code.
func Resolve(code string) (string, string) {
	name := Name(code)
	return name, slug.Make(name)
}

// Known reports whether the code is in the state table.
func Known(code string) bool {
	_, ok := codeToName[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}
