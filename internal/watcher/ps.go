package watcher

import (
	"fmt"
	"runtime"

	ps "github.com/mitchellh/go-ps"
)

var goos = runtime.GOOS

// processNames maps GOOS to the executable names Edge runs under.
var processNames = map[string][]string{
	"windows": {"msedge.exe", "msedge"},
	"linux": {
		"msedge",
		"microsoft-edge",
		"microsoft-edge-stable",
		"microsoft-edge-beta",
		"microsoft-edge-dev",
	},
	// The kernel truncates process names to 16 bytes (MAXCOMLEN), so the
	// channel builds also show up clipped.
	"darwin": {
		"Microsoft Edge",
		"Microsoft Edge Beta",
		"Microsoft Edge Dev",
		"Microsoft Edge Canary",
		"Microsoft Edge B",
		"Microsoft Edge D",
		"Microsoft Edge C",
	},
}

// ProcessNamesFor returns the Edge executable names for goos.
func ProcessNamesFor(goos string) []string {
	if names, ok := processNames[goos]; ok {
		return names
	}
	return []string{"msedge"}
}

// PSLister lists processes through the OS process table.
type PSLister struct{}

func (PSLister) ProcessNames() ([]string, error) {
	procs, err := ps.Processes()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		names = append(names, p.Executable())
	}
	return names, nil
}
