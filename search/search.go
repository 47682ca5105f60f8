package search

import (
	"io/fs"
	"path/filepath"
)

// An internal general purpose trawling function. Potentially could be globally
// exported at a later date.
// The basename is only matched with the pattern, eg
// ("*.ens", "0060_20150624_185509_ensemble.ens")
func trawl(pattern, root string, items []string) []string {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		match, err := filepath.Match(pattern, filepath.Base(path))
		if err != nil {
			return err
		}
		if match {
			items = append(items, path)
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
	return items
}

// FindRTI recursively searches for *.ens files (RTI frame captures) under a
// given root directory.
func FindRTI(root string) []string {
	return trawl("*.ens", root, make([]string, 0))
}

// FindPD0 recursively searches for *.pd0 files under a given root directory.
func FindPD0(root string) []string {
	return trawl("*.pd0", root, make([]string, 0))
}
