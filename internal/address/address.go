// Package address canonicalizes street addresses so that the same parcel
// reported by different data sources collapses to one key.
package address

import (
	"regexp"
	"strings"

	"github.com/sells-group/appraisal-cli/internal/model"
)

var rePunct = regexp.MustCompile(`[^A-Z0-9\s]`)

// unitMarkers end the street portion of a line; anything after is a unit.
var unitMarkers = []string{" APT ", " UNIT ", " STE ", " SUITE ", " #"}

// suffixes maps USPS long forms to their standard abbreviations.
var suffixes = map[string]string{
	"STREET":    "ST",
	"ROAD":      "RD",
	"AVENUE":    "AVE",
	"BOULEVARD": "BLVD",
	"DRIVE":     "DR",
	"LANE":      "LN",
	"COURT":     "CT",
	"CIRCLE":    "CIR",
	"TERRACE":   "TER",
	"PLACE":     "PL",
	"PARKWAY":   "PKWY",
	"HIGHWAY":   "HWY",
	"TRAIL":     "TRL",
	"WAY":       "WAY",
}

// directionals maps spelled-out directions to their abbreviations.
var directionals = map[string]string{
	"NORTH": "N", "SOUTH": "S", "EAST": "E", "WEST": "W",
	"NORTHEAST": "NE", "NORTHWEST": "NW", "SOUTHEAST": "SE", "SOUTHWEST": "SW",
}

// states maps spelled-out state names to USPS codes.
var states = map[string]string{
	"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR", "CALIFORNIA": "CA",
	"COLORADO": "CO", "CONNECTICUT": "CT", "DELAWARE": "DE", "DISTRICT OF COLUMBIA": "DC",
	"FLORIDA": "FL", "GEORGIA": "GA", "HAWAII": "HI", "IDAHO": "ID", "ILLINOIS": "IL",
	"INDIANA": "IN", "IOWA": "IA", "KANSAS": "KS", "KENTUCKY": "KY", "LOUISIANA": "LA",
	"MAINE": "ME", "MARYLAND": "MD", "MASSACHUSETTS": "MA", "MICHIGAN": "MI", "MINNESOTA": "MN",
	"MISSISSIPPI": "MS", "MISSOURI": "MO", "MONTANA": "MT", "NEBRASKA": "NE", "NEVADA": "NV",
	"NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ", "NEW MEXICO": "NM", "NEW YORK": "NY",
	"NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND", "OHIO": "OH", "OKLAHOMA": "OK", "OREGON": "OR",
	"PENNSYLVANIA": "PA", "RHODE ISLAND": "RI", "SOUTH CAROLINA": "SC", "SOUTH DAKOTA": "SD",
	"TENNESSEE": "TN", "TEXAS": "TX", "UTAH": "UT", "VERMONT": "VT", "VIRGINIA": "VA",
	"WASHINGTON": "WA", "WEST VIRGINIA": "WV", "WISCONSIN": "WI", "WYOMING": "WY",
}

// Line normalizes a street line: upper case, unit stripped, punctuation
// removed, suffixes and directionals abbreviated, whitespace collapsed.
func Line(line1 string) string {
	s, _ := splitUnit(strings.ToUpper(strings.TrimSpace(line1)))
	s = rePunct.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	for i, w := range words {
		if abbr, ok := directionals[w]; ok {
			words[i] = abbr
			continue
		}
		if abbr, ok := suffixes[w]; ok {
			words[i] = abbr
		}
	}
	return strings.Join(words, " ")
}

// Unit returns the normalized unit designator of a street line, or "" when
// there is none. "Apt 4B", "Unit 4B" and "#4b" all yield "4B".
func Unit(line1 string) string {
	_, unit := splitUnit(strings.ToUpper(strings.TrimSpace(line1)))
	unit = rePunct.ReplaceAllString(unit, "")
	unit = strings.Join(strings.Fields(unit), "")
	if trimmed := strings.TrimLeft(unit, "0"); trimmed != "" {
		unit = trimmed
	}
	return unit
}

// State folds a state name or code to its two-letter USPS code.
func State(st string) string {
	st = strings.Join(strings.Fields(rePunct.ReplaceAllString(strings.ToUpper(st), " ")), " ")
	if code, ok := states[st]; ok {
		return code
	}
	return st
}

// Key returns the stable merge key for an address. Units in one building
// stay distinct; the marker used to spell them does not matter.
func Key(a model.Address) string {
	if strings.TrimSpace(a.Line1) == "" {
		return ""
	}
	line := Line(a.Line1)
	if unit := Unit(a.Line1); unit != "" {
		line += " #" + unit
	}
	city := strings.Join(strings.Fields(rePunct.ReplaceAllString(strings.ToUpper(a.City), " ")), " ")
	return strings.ToLower(line + "|" + city + "|" + State(a.State) + "|" + zip5(a.Zip))
}

// splitUnit cuts s at the earliest unit marker.
func splitUnit(s string) (street, unit string) {
	padded := " " + s + " "
	at, width := -1, 0
	for _, m := range unitMarkers {
		if i := strings.Index(padded, m); i >= 0 && (at < 0 || i < at) {
			at, width = i, len(m)
		}
	}
	if at < 0 {
		return s, ""
	}
	return strings.TrimSpace(padded[:at]), strings.TrimSpace(padded[at+width:])
}

func zip5(z string) string {
	z = strings.TrimSpace(z)
	if len(z) >= 5 {
		return z[:5]
	}
	return z
}
