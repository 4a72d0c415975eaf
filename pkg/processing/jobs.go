package processing

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// JobsFromPaths builds one job per file. Directories expand to the regular,
// non-hidden files directly inside them, sorted by name. Paths that do not
// exist still produce a job so the processor can report them.
func JobsFromPaths(paths []string, model string) ([]Job, error) {
	var jobs []Job
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			jobs = append(jobs, Job{FileName: filepath.Base(path), Path: path, Model: model})
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			jobs = append(jobs, Job{FileName: name, Path: filepath.Join(path, name), Model: model})
		}
	}
	return jobs, nil
}
