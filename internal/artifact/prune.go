package artifact

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
)

// Prune removes files under the named subtrees that the current run did not
// write, so artifacts of disabled services or removed machines do not
// outlive them. Only subtrees this run fully regenerated may be pruned;
// afterwards empty directories are dropped too.
func (w *Writer) Prune(subtrees ...string) error {
	for _, sub := range subtrees {
		root := filepath.Join(w.dir, sub)

		var stale []string
		err := filepath.WalkDir(root, func(path string, e fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipAll
				}
				return err
			}
			if e.IsDir() || w.written[path] {
				return nil
			}
			stale = append(stale, path)
			return nil
		})
		if err != nil {
			return err
		}

		for _, path := range stale {
			if err := os.Remove(path); err != nil {
				return err
			}
			rel, _ := filepath.Rel(w.dir, path)
			log.Info().Str("artifact", rel).Msg("stale artifact removed")
		}
		removeEmptyDirs(root)
	}
	return nil
}

// removeEmptyDirs drops directories left empty by pruning, children before
// parents. os.Remove refuses non-empty directories, which is exactly the
// filter needed.
func removeEmptyDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, e fs.DirEntry, err error) error {
		if err == nil && e.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, d := range dirs {
		_ = os.Remove(d)
	}
}
