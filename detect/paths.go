package detect

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// SubjectExt is the extension of subject files found inside directories.
const SubjectExt = ".xml"

// ExpandPaths replaces each directory in paths with the subject files
// below it. Files named directly are kept whatever their extension.
func ExpandPaths(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		var found []string
		err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && filepath.Ext(p) == SubjectExt {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking %s: %w", path, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
