package fontscan

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	versionPrefixRE = regexp.MustCompile(`(?i)^Version\s+`)
	nonDigitRE      = regexp.MustCompile(`[^0-9]`)
	versionSlugRE   = regexp.MustCompile(`(\d+)\.(\d+)`)
)

// Version is a font version parsed into a comparable numeric tuple.
type Version []int

// ParseVersion parses a font version string into a Version. Each dot
// separated segment is reduced to its digits:
//
//	"Version 7.03"    -> 7.3
//	"Version 5.01.2x" -> 5.1.2
//	"13.0d1e3"        -> 13.13
//
// An empty string parses to 0.
func ParseVersion(s string) Version {
	if s == "" {
		return Version{0}
	}
	s = versionPrefixRE.ReplaceAllString(s, "")
	segments := strings.Split(s, ".")
	v := make(Version, 0, len(segments))
	for _, segment := range segments {
		digits := nonDigitRE.ReplaceAllString(segment, "")
		n, err := strconv.Atoi(digits)
		if err != nil {
			n = 0
		}
		v = append(v, n)
	}
	return v
}

// Compare orders versions lexicographically. It returns -1 if v < other,
// 0 if equal and 1 if v > other. A version that is a prefix of a longer
// one sorts first.
func (v Version) Compare(other Version) int {
	for i := 0; i < len(v) && i < len(other); i++ {
		switch {
		case v[i] < other[i]:
			return -1
		case v[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(v) < len(other):
		return -1
	case len(v) > len(other):
		return 1
	}
	return 0
}

func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// VersionSlug extracts a file name slug like "7_03" from the first
// major.minor pair of a version string. The minor part is padded or
// truncated to two digits. An empty slug is returned when no pair is found.
func VersionSlug(s string) string {
	m := versionSlugRE.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	minor := m[2]
	for len(minor) < 2 {
		minor += "0"
	}
	return m[1] + "_" + minor[:2]
}
