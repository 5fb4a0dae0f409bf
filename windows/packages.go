// Package windows implements the Windows 11 font pipeline: finding and
// downloading language feature font packages via the UUP dump API,
// extracting and deduplicating the fonts they contain, and mapping the
// packages to BCP 47 locales via the Microsoft FOD spreadsheet.
package windows

import (
	"regexp"
	"strings"

	"github.com/fontpipe/fontpipe/uupdump"
)

// CoreESDName is the package that carries the core (non language specific)
// Windows fonts.
const CoreESDName = "Microsoft-Windows-Client-Desktop-Required-Package.esd"

var (
	deltaCabRE = regexp.MustCompile(`(?i)_[a-f0-9]{8}\.cab$`)
	archRE     = regexp.MustCompile(`-(amd64|arm64|x86)$`)
	shortPkgRE = regexp.MustCompile(`Fonts-([^-]+)-Package`)
)

// FontPackages filters an update file list down to the language font CAB
// packages, excluding delta CABs.
func FontPackages(files map[string]uupdump.File) map[string]uupdump.File {
	packages := make(map[string]uupdump.File)
	for name, info := range files {
		lower := strings.ToLower(name)
		if deltaCabRE.MatchString(lower) {
			continue
		}
		if strings.Contains(lower, "languagefeatures-fonts-") && strings.HasSuffix(lower, ".cab") {
			packages[name] = info
		}
	}
	return packages
}

// NormalizeCabName strips the .cab suffix and a trailing CPU architecture
// suffix from a CAB package name. The FOD mapping and override files use
// these normalized keys.
func NormalizeCabName(name string) string {
	name = strings.TrimSuffix(name, ".cab")
	return archRE.ReplaceAllString(name, "")
}

// ShortPackageName shortens a package name for reports: "core" for the core
// ESD, the language tag for font CABs.
func ShortPackageName(name string) string {
	if name == CoreESDName {
		return "core"
	}
	if m := shortPkgRE.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}
