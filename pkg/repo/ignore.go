package repo

import "strings"

// isMetadataPath reports whether a repo-relative path falls inside the
// repository's own .got/ metadata directory. The Status walk uses this
// to skip internal bookkeeping files; there is no general
// ignore-pattern matching (.gitignore-style globs are out of scope).
func isMetadataPath(relPath string) bool {
	return relPath == ".got" || strings.HasPrefix(relPath, ".got/")
}
