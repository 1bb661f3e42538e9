package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/port"
)

// Walker selects files for bulk ingestion by doublestar include/exclude patterns.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Walk returns the included files under root, sorted by path.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	var files []port.FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath != "." && w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, port.FileInfo{
				Path:    path,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}

		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

// Expand resolves command-line arguments into files. Directories are walked,
// glob patterns are matched with doublestar, and plain files are taken as
// given. Duplicates are dropped.
func (w *Walker) Expand(args []string) ([]port.FileInfo, error) {
	seen := make(map[string]bool)
	var out []port.FileInfo
	add := func(fi port.FileInfo) {
		if !seen[fi.Path] {
			seen[fi.Path] = true
			out = append(out, fi)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			files, err := w.Walk(arg)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
		case err == nil:
			abs, err := filepath.Abs(arg)
			if err != nil {
				return nil, err
			}
			add(port.FileInfo{Path: abs, ModTime: info.ModTime().Unix(), Size: info.Size()})
		default:
			matches, gerr := doublestar.FilepathGlob(arg)
			if gerr != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, gerr)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %q", arg)
			}
			for _, m := range matches {
				if w.shouldExclude(filepath.ToSlash(m)) {
					continue
				}
				mi, err := os.Stat(m)
				if err != nil {
					return nil, err
				}
				if mi.IsDir() {
					continue
				}
				abs, err := filepath.Abs(m)
				if err != nil {
					return nil, err
				}
				add(port.FileInfo{Path: abs, ModTime: mi.ModTime().Unix(), Size: mi.Size()})
			}
		}
	}
	return out, nil
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
