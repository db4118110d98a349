// Package files implements the file-oriented tools (file_search,
// file_read, file_create, file_edit, multi_edit, ls, glob, grep) from
// §4.1, all scoped to a workspace root.
package files

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Spandan7724/songbird/internal/agent"
)

// Resolver confines relative paths to Root, rejecting any path that
// would escape it via "..".
type Resolver struct {
	Root string
}

// Resolve returns the absolute path for p within the resolver's Root,
// or an error if p escapes Root.
func (r Resolver) Resolve(p string) (string, error) {
	root := r.Root
	if root == "" {
		root = "."
	}
	if p == "" {
		p = "."
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("files: resolving root: %w", err)
	}

	var targetAbs string
	if filepath.IsAbs(p) {
		targetAbs = filepath.Clean(p)
	} else {
		targetAbs = filepath.Join(rootAbs, p)
	}

	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return "", fmt.Errorf("files: resolving path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", agent.ErrPathEscapesWorkspace, p)
	}
	return targetAbs, nil
}
