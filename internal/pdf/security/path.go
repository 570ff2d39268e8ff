// Package security keeps the files Docfly reads and writes inside its work
// directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	derrors "github.com/Shashank-Shivakumar/Docfly/internal/errors"
)

// PathValidator checks that paths resolve inside one directory
type PathValidator struct {
	dir string
}

// NewPathValidator creates a validator rooted at dir. The directory does not
// have to exist yet.
func NewPathValidator(dir string) (*PathValidator, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, derrors.NewValidationError("path_validator", "directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, derrors.NewValidationError("path_validator", fmt.Sprintf("failed to resolve %s: %v", dir, err))
	}
	return &PathValidator{dir: filepath.Clean(abs)}, nil
}

// Dir returns the absolute root directory
func (v *PathValidator) Dir() string {
	return v.dir
}

// Resolve turns path into a cleaned absolute path inside the root. Relative
// paths are taken relative to the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", derrors.NewValidationError("resolve_path", "path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.dir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", derrors.NewValidationError("resolve_path", fmt.Sprintf("failed to resolve path: %v", err))
	}
	if err := v.ValidatePath(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// ValidatePath fails when path points outside the root
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return derrors.NewValidationError("validate_path", "path cannot be empty")
	}
	within, err := v.IsWithin(path)
	if err != nil {
		return derrors.NewValidationError("validate_path", err.Error())
	}
	if !within {
		return derrors.NewValidationError("validate_path", fmt.Sprintf("path is outside the work directory: %s", path))
	}
	return nil
}

// IsWithin reports whether path is the root or below it. Symlinks are
// followed on both sides so a link cannot escape the root.
func (v *PathValidator) IsWithin(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	clean := filepath.Clean(abs)

	target := clean
	if resolved, err := evalExisting(clean); err == nil {
		target = resolved
	}
	realDir := v.dir
	if resolved, err := filepath.EvalSymlinks(v.dir); err == nil {
		realDir = resolved
	}

	inside := func(p string) bool {
		return contains(v.dir, p) || contains(realDir, p)
	}
	return inside(clean) && inside(target), nil
}

// ValidateDirectory checks dir is inside the root and, if it exists, is a
// directory
func (v *PathValidator) ValidateDirectory(dir string) error {
	if err := v.ValidatePath(dir); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return derrors.NewValidationError("validate_directory", fmt.Sprintf("cannot access directory: %v", err))
	}
	if !info.IsDir() {
		return derrors.NewValidationError("validate_directory", fmt.Sprintf("path is not a directory: %s", dir))
	}
	return nil
}

func contains(dir, path string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// evalExisting resolves symlinks in the longest existing prefix of path, so
// files that are about to be created still get their parent checked
func evalExisting(path string) (string, error) {
	rest := ""
	cur := path
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("no existing prefix for %s", path)
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}
