package adapters

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/jonwraymond/treewalk/tree"
)

// FSConfig configures the filesystem adapter.
type FSConfig struct {
	// FollowSymlinks resolves symbolic links to directories and descends
	// into them. Default: false (symlinks are skipped).
	FollowSymlinks bool

	// IncludeHidden includes dot-prefixed entries. Default: false.
	IncludeHidden bool
}

// FS enumerates directory trees on the local filesystem.
//
// Children uses a single batched directory read per node and never stats
// individual entries on the enumeration path, except one stat per symbolic
// link when FollowSymlinks is set.
type FS struct {
	config   FSConfig
	identity string
}

// NewFS creates a filesystem adapter.
func NewFS(config FSConfig) *FS {
	digest := xxhash.Sum64String(fmt.Sprintf("symlinks=%t;hidden=%t",
		config.FollowSymlinks, config.IncludeHidden))
	return &FS{
		config:   config,
		identity: "fs:" + strconv.FormatUint(digest, 16),
	}
}

// FSNode is a filesystem tree position.
type FSNode struct {
	path  string
	name  string
	isDir bool
}

// FSRoot returns the node for path, which must exist.
func FSRoot(path string) (*FSNode, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", tree.ErrNodeGone, path)
		}
		return nil, fmt.Errorf("%w: lstat %s: %v", tree.ErrSourceUnavailable, path, err)
	}
	return &FSNode{
		path:  filepath.Clean(path),
		name:  filepath.Base(path),
		isDir: info.IsDir(),
	}, nil
}

// Key returns the cleaned path with forward slashes.
func (n *FSNode) Key() tree.Key {
	return tree.Key(filepath.ToSlash(n.path))
}

// Name returns the last path element.
func (n *FSNode) Name() string { return n.name }

// Path returns the node's native filesystem path.
func (n *FSNode) Path() string { return n.path }

// IsDir reports whether the node is a directory (or a followed symlink
// whose target is a directory).
func (n *FSNode) IsDir() bool { return n.isDir }

// Metadata returns size, mode, and modification time from a single lstat.
func (n *FSNode) Metadata(_ context.Context) (map[string]any, error) {
	info, err := os.Lstat(n.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", tree.ErrNodeGone, n.path)
		}
		return nil, fmt.Errorf("%w: lstat %s: %v", tree.ErrSourceUnavailable, n.path, err)
	}
	return map[string]any{
		"size":          info.Size(),
		"mode":          info.Mode().String(),
		"modified_time": info.ModTime(),
	}, nil
}

// Children enumerates the direct children of a directory node. Non-directory
// nodes have no children.
func (a *FS) Children(ctx context.Context, node tree.Node, _ ...tree.ChildrenOption) ([]tree.Node, error) {
	fsn, ok := node.(*FSNode)
	if !ok {
		return nil, fmt.Errorf("%w: fs adapter received foreign node %q", tree.ErrInvariant, node.Key())
	}
	if !fsn.isDir {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(fsn.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", tree.ErrNodeGone, fsn.path)
		}
		return nil, fmt.Errorf("%w: read dir %s: %v", tree.ErrSourceUnavailable, fsn.path, err)
	}

	children := make([]tree.Node, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !a.config.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			if !a.config.FollowSymlinks {
				continue
			}
			// One stat per symlink, only when following is enabled.
			info, err := os.Stat(filepath.Join(fsn.path, name))
			if err == nil {
				isDir = info.IsDir()
			}
		}
		children = append(children, &FSNode{
			path:  filepath.Join(fsn.path, name),
			name:  name,
			isDir: isDir,
		})
	}
	return children, nil
}

// Identity returns a tag derived from the adapter configuration.
func (a *FS) Identity() string { return a.identity }

// FSValidator returns a change-token callback for filesystem nodes, suitable
// for cache revalidation. The token is the node's modification time; equal
// tokens mean the directory listing is still current.
func FSValidator() func(ctx context.Context, node tree.Node) (string, error) {
	return func(_ context.Context, node tree.Node) (string, error) {
		fsn, ok := node.(*FSNode)
		if !ok {
			return "", fmt.Errorf("%w: fs validator received foreign node %q", tree.ErrInvariant, node.Key())
		}
		info, err := os.Lstat(fsn.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", tree.ErrNodeGone, fsn.path)
			}
			return "", fmt.Errorf("%w: lstat %s: %v", tree.ErrSourceUnavailable, fsn.path, err)
		}
		return strconv.FormatInt(info.ModTime().UnixNano(), 10), nil
	}
}

var (
	_ tree.Adapter   = (*FS)(nil)
	_ tree.Node      = (*FSNode)(nil)
	_ tree.Metadater = (*FSNode)(nil)
)
