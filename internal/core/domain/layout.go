package domain

import (
	"path/filepath"
	"runtime"
)

const (
	// HomeEnvVar overrides the base directory holding config, state and tools.
	HomeEnvVar = "REDIRECTOR_HOME"

	// ConfigFileName is the name of the native configuration file.
	ConfigFileName = "redirector.yaml"

	// LegacyConfigFileName is the configuration file written by the installer.
	LegacyConfigFileName = "patcher_config.json"

	// StateFileName is the name of the persistent state document.
	StateFileName = "wrapper_state.json"

	// LogFileName is the name of the log file.
	LogFileName = "redirector.log"

	// ScratchDirName is the directory under the base directory that holds per-process scratch space.
	ScratchDirName = "scratch"

	// ModernToolName is the executable name of the modern resolver tool.
	ModernToolName = "yt-dlp-latest"

	// NativeToolName is the executable name of the original resolver tool.
	NativeToolName = "yt-dlp-og"

	// DenoToolName is the JavaScript runtime passed to the modern tool when present.
	DenoToolName = "deno"

	// MaxLogSize is the size above which the log file is truncated on startup.
	MaxLogSize = 1 << 20

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// ExecutableName appends the platform executable suffix to name.
func ExecutableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// StatePath returns the path of the state document under base.
func StatePath(base string) string {
	return filepath.Join(base, StateFileName)
}

// LogPath returns the path of the log file under base.
func LogPath(base string) string {
	return filepath.Join(base, LogFileName)
}

// ScratchPath returns the root of per-process scratch directories under base.
func ScratchPath(base string) string {
	return filepath.Join(base, ScratchDirName)
}

// ToolPath returns the path of the named tool executable under base.
func ToolPath(base, name string) string {
	return filepath.Join(base, ExecutableName(name))
}
