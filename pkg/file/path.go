// Package file holds small path helpers shared across the player.
package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of path for ext, adding the leading
// dot when ext lacks one. Used to derive the sidecar subtitle path
// from a media path (movie.mp4 -> movie.srt). A path without an
// extension, or a dotfile, gets ext appended.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	base := filepath.Base(path)
	if dot := strings.LastIndex(base, "."); dot > 0 {
		base = base[:dot]
	}

	return filepath.Join(filepath.Dir(path), base+ext)
}
