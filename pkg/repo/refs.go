package repo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/got/pkg/object"
	"github.com/odvcencio/got/pkg/vcserr"
)

// refLockSuffix is the sibling-file extension UpdateRefCAS uses for its
// O_EXCL compare-and-swap lock (see acquireRefLock in init.go). A process
// that crashed mid-update can leave one of these behind; ListRefs must
// never surface it as if it were a real ref.
const refLockSuffix = ".lock"

// ListRefs walks the ref namespace under .got/refs and returns every ref it
// finds as a name relative to the refs root ("heads/main"), mapped to the
// hash currently stored there. prefix scopes the walk to a subdirectory
// ("heads" to list only branches); an empty prefix walks the whole
// namespace, which SPEC_FULL §4.7 currently only populates with
// refs/heads/<name>.
func (r *Repo) ListRefs(prefix string) (map[string]object.Hash, error) {
	root := filepath.Join(r.GotDir, "refs")
	dir := root
	if strings.TrimSpace(prefix) != "" {
		dir = filepath.Join(root, filepath.FromSlash(prefix))
	}

	refs := make(map[string]object.Hash)
	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), refLockSuffix) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		refs[filepath.ToSlash(rel)] = object.Hash(strings.TrimSpace(string(data)))
		return nil
	})
	if os.IsNotExist(walkErr) {
		return refs, nil
	}
	if walkErr != nil {
		return nil, &vcserr.IoError{Op: "list refs under " + dir, Err: walkErr}
	}
	return refs, nil
}
