package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppLabel identifies the service to systemd, launchd and the registry.
	AppLabel = "io.github.leonletto.edge-copilot-helper"

	// BinaryName is the installed executable name (without platform suffix).
	BinaryName = "edge-copilot-helper"
)

// ErrNoHomeDir is returned when the user's home directory cannot be resolved.
// It is fatal at startup.
var ErrNoHomeDir = errors.New("could not determine home directory")

// platformDirs lists where each OS keeps per-user application data, logs and
// service definitions, relative to the home directory. Empty LogDir means
// "logs/" inside the install directory; empty ServiceFile means the platform
// registers the service without a file (Windows Run key).
type platformDirs struct {
	DataDir     string
	LogDir      string
	ServiceFile string
	ExeSuffix   string
	XDG         bool
}

var platforms = map[string]platformDirs{
	"darwin": {
		DataDir:     "Library/Application Support",
		LogDir:      filepath.Join("Library", "Logs", AppLabel),
		ServiceFile: filepath.Join("Library", "LaunchAgents", AppLabel+".plist"),
	},
	"linux": {
		DataDir:     filepath.Join(".local", "share"),
		ServiceFile: filepath.Join(".config", "systemd", "user", AppLabel+".service"),
		XDG:         true,
	},
	"windows": {
		DataDir:   filepath.Join("AppData", "Local"),
		ExeSuffix: ".exe",
	},
}

// Layout holds every per-user path the helper reads or writes.
type Layout struct {
	Home        string
	InstallDir  string
	LogDir      string
	RunDir      string
	BinaryPath  string
	ConfigFile  string
	HistoryDB   string
	LockFile    string
	PIDFile     string
	ServiceFile string // empty on platforms without a service definition file
}

// HomeDir resolves the current user's home directory.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoHomeDir, err)
	}
	if home == "" {
		return "", ErrNoHomeDir
	}
	return home, nil
}

// Default returns the layout for the running OS and user.
func Default() (Layout, error) {
	home, err := HomeDir()
	if err != nil {
		return Layout{}, err
	}
	return For(runtime.GOOS, home, os.Getenv), nil
}

// For computes the layout for goos rooted at home. getenv supplies XDG
// overrides on Linux; pass nil to ignore the environment. Unknown platforms
// use the Linux layout.
func For(goos, home string, getenv func(string) string) Layout {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	p, ok := platforms[goos]
	if !ok {
		p = platforms["linux"]
	}

	dataDir := filepath.Join(home, p.DataDir)
	serviceFile := ""
	if p.ServiceFile != "" {
		serviceFile = filepath.Join(home, p.ServiceFile)
	}
	if p.XDG {
		if xdg := getenv("XDG_DATA_HOME"); filepath.IsAbs(xdg) {
			dataDir = xdg
		}
		if xdg := getenv("XDG_CONFIG_HOME"); filepath.IsAbs(xdg) {
			serviceFile = filepath.Join(xdg, "systemd", "user", AppLabel+".service")
		}
	}

	installDir := filepath.Join(dataDir, AppLabel)
	logDir := filepath.Join(installDir, "logs")
	if p.LogDir != "" {
		logDir = filepath.Join(home, p.LogDir)
	}
	runDir := filepath.Join(installDir, "run")

	return Layout{
		Home:        home,
		InstallDir:  installDir,
		LogDir:      logDir,
		RunDir:      runDir,
		BinaryPath:  filepath.Join(installDir, BinaryName+p.ExeSuffix),
		ConfigFile:  filepath.Join(installDir, "config.json"),
		HistoryDB:   filepath.Join(installDir, "history.db"),
		LockFile:    filepath.Join(runDir, BinaryName+".lock"),
		PIDFile:     filepath.Join(runDir, BinaryName+".pid"),
		ServiceFile: serviceFile,
	}
}
