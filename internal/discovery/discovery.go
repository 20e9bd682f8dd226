// Package discovery locates Microsoft Edge configuration files across install
// channels and user profiles.
package discovery

import (
	"path/filepath"
	"strings"

	"github.com/leonletto/edge-copilot-helper/internal/fsx"
)

const (
	// StateFileName is the per-channel global state document.
	StateFileName = "Local State"

	// PreferencesFileName is the per-profile preferences document.
	PreferencesFileName = "Preferences"

	defaultProfile        = "Default"
	numberedProfilePrefix = "Profile "
)

// Variant is one Edge release channel and its user-data directory relative
// to the home directory.
type Variant struct {
	Channel string
	Subpath string
}

// VariantTables maps GOOS to the user-data directories of each channel.
var VariantTables = map[string][]Variant{
	"darwin": {
		{Channel: "stable", Subpath: "Library/Application Support/Microsoft Edge"},
		{Channel: "beta", Subpath: "Library/Application Support/Microsoft Edge Beta"},
		{Channel: "dev", Subpath: "Library/Application Support/Microsoft Edge Dev"},
		{Channel: "canary", Subpath: "Library/Application Support/Microsoft Edge Canary"},
	},
	"linux": {
		{Channel: "stable", Subpath: ".config/microsoft-edge"},
		{Channel: "beta", Subpath: ".config/microsoft-edge-beta"},
		{Channel: "dev", Subpath: ".config/microsoft-edge-dev"},
		{Channel: "canary", Subpath: ".config/microsoft-edge-canary"},
	},
	"windows": {
		{Channel: "stable", Subpath: "AppData/Local/Microsoft/Edge/User Data"},
		{Channel: "beta", Subpath: "AppData/Local/Microsoft/Edge Beta/User Data"},
		{Channel: "dev", Subpath: "AppData/Local/Microsoft/Edge Dev/User Data"},
		{Channel: "canary", Subpath: "AppData/Local/Microsoft/Edge SxS/User Data"},
	},
}

// VariantsFor returns the channel table for goos. Unknown platforms get the
// Linux table.
func VariantsFor(goos string) []Variant {
	if v, ok := VariantTables[goos]; ok {
		return v
	}
	return VariantTables["linux"]
}

// Result holds the candidate files found by one discovery pass.
type Result struct {
	StateFiles      []string
	PreferenceFiles []string
}

// Empty reports whether nothing was found.
func (r Result) Empty() bool {
	return len(r.StateFiles) == 0 && len(r.PreferenceFiles) == 0
}

// Discover scans every variant under home. Missing or unreadable directories
// are skipped silently; the result is in discovery order.
func Discover(fsys fsx.FS, home string, variants []Variant) Result {
	var res Result

	for _, v := range variants {
		root := filepath.Join(home, filepath.FromSlash(v.Subpath))
		if !fsys.Exists(root) {
			continue
		}

		statePath := filepath.Join(root, StateFileName)
		if fsys.Exists(statePath) {
			res.StateFiles = append(res.StateFiles, statePath)
		}

		entries, err := fsys.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() || !IsProfileDir(entry.Name()) {
				continue
			}
			prefs := filepath.Join(root, entry.Name(), PreferencesFileName)
			if fsys.Exists(prefs) {
				res.PreferenceFiles = append(res.PreferenceFiles, prefs)
			}
		}
	}

	return res
}

// IsProfileDir reports whether a user-data subdirectory holds a profile.
func IsProfileDir(name string) bool {
	return name == defaultProfile || strings.HasPrefix(name, numberedProfilePrefix)
}
