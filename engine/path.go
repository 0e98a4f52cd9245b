package engine

import "strings"

// splitParentChild trims a single trailing '/' and splits on the last
// internal '/', returning (parent, child). parent is "" when there is no
// internal '/' — the child lives directly in the root (§4.C
// split_parent_child_from_path).
func splitParentChild(path string) (parent, child string) {
	path = strings.TrimSuffix(path, "/")

	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// tokenize splits a path on '/', skipping empty segments and preserving
// order (§4.C tokenize). "" and "/" both tokenize to no segments (the
// root).
func tokenize(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
