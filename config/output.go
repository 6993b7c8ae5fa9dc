package config

import (
	"os"
	"path/filepath"
)

// ResolvePaths makes the input and output paths absolute, relative paths
// being taken from workDir (the current directory when empty).
func (j *Job) ResolvePaths(workDir string) error {
	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		workDir = cwd
	}

	j.Input.Path = resolve(workDir, j.Input.Path)
	j.Output.File = resolve(workDir, j.Output.File)
	return nil
}

func resolve(workDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workDir, path)
}

// checkOutputDir makes sure the folder that will hold the output exists
func checkOutputDir(file string) error {
	dir := filepath.Dir(file)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return &FieldError{Field: "output.file", Err: ErrOutputDirMissing, Value: dir}
	}
	return nil
}
