//go:build !unix

package dataset

import (
	"fmt"
	"os"
)

// CheckReadable verifies that path names a regular file the process may read.
func CheckReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
