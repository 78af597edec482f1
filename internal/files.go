package internal

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Directory returns the names of the entries in dir. If dir is a
// regular file, Directory returns its base name.
func Directory(dir string) (files []string, err error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{filepath.Base(dir)}, nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer func() {
		nerr := f.Close()
		if err == nil {
			err = nerr
		}
	}()
	return f.Readdirnames(0)
}

// ClearDirectory removes everything inside dir, creating dir if it does
// not exist yet.
func ClearDirectory(dir string) error {
	names, err := Directory(dir)
	if os.IsNotExist(err) {
		return errors.Wrapf(os.MkdirAll(dir, 0700), "while creating %v", dir)
	} else if err != nil {
		return errors.Wrapf(err, "while listing %v", dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return errors.Errorf("%v is not a directory", dir)
	}
	for _, name := range names {
		if err := os.RemoveAll(filepath.Join(dir, name)); err != nil {
			return errors.Wrapf(err, "while clearing %v", dir)
		}
	}
	return nil
}

// FullPathname returns filename joined to the current working directory
// unless it is already absolute.
func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}
