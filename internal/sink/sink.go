// Package sink resolves the destination of a "p <out_path>" print
// command: the file to write to, and (best-effort, Linux-only) a
// description of what filesystem backs it, in the spirit of the
// loopback filesystems' habit of reporting their backing store.
package sink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/sys/mountinfo"
)

// Create opens outPath for a fresh tree dump, truncating any previous
// contents, matching the C server's fopen(path, "w").
func Create(outPath string) (*os.File, error) {
	f, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("sink: create %s: %w", outPath, err)
	}
	return f, nil
}

// Describe reports the mount backing outPath's directory, e.g.
// "ext4 on /" or "tmpfs on /tmp". It degrades to "unknown" rather than
// failing: this is diagnostic text for server logs, never load-bearing
// for the print operation itself.
func Describe(outPath string) string {
	dir := filepath.Dir(outPath)
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "unknown"
	}

	mounts, err := mountinfo.GetMounts(nil)
	if err != nil {
		return "unknown"
	}

	best := longestPrefixMatch(mounts, abs)
	if best == nil {
		return "unknown"
	}
	return fmt.Sprintf("%s on %s", best.FSType, best.Mountpoint)
}

func longestPrefixMatch(mounts []*mountinfo.Info, path string) *mountinfo.Info {
	var best *mountinfo.Info
	for _, m := range mounts {
		if !withinMount(path, m.Mountpoint) {
			continue
		}
		if best == nil || len(m.Mountpoint) > len(best.Mountpoint) {
			best = m
		}
	}
	return best
}

func withinMount(path, mountpoint string) bool {
	if mountpoint == "/" {
		return true
	}
	if path == mountpoint {
		return true
	}
	rel, err := filepath.Rel(mountpoint, path)
	if err != nil {
		return false
	}
	return rel != ".." && len(rel) > 0 && rel[0] != '.'
}
