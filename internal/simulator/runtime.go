package simulator

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// FindRuntime resolves the simulator program. Paths with a directory component are
// checked on disk relative to the working directory, bare names are looked up in PATH.
func FindRuntime(path string) (string, error) {
	if !strings.ContainsRune(path, os.PathSeparator) && !strings.ContainsRune(path, '/') {
		binPath, err := exec.LookPath(path)
		if err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				return "", NewRuntimeError(fmt.Sprintf("simulator: `%s` not found in PATH", path), err)
			}
			return "", NewRuntimeError("simulator: failed to locate binary", err)
		}
		return binPath, nil
	}

	binPath, err := filepath.Abs(path)
	if err != nil {
		return "", NewRuntimeError(fmt.Sprintf("simulator: invalid path '%s'", path), err)
	}

	stat, err := os.Stat(binPath)
	if err != nil {
		return "", NewRuntimeError(fmt.Sprintf("simulator: failed to find binary '%s'", binPath), err)
	}
	if stat.IsDir() {
		return "", NewRuntimeError(fmt.Sprintf("simulator: '%s' is a directory", binPath), nil)
	}

	return binPath, nil
}
