// Package pathutil maps user supplied file paths to document identities and
// keeps relative paths confined to a root directory.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/flexigpt/ordermerge-go/spec"
)

// ResolveUnderRoot returns the absolute path of rel inside root. It fails
// with spec.ErrInvalidArgument when rel is absolute, empty or climbs out of
// root.
func ResolveUnderRoot(root, rel string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", fmt.Errorf("%w: root is empty", spec.ErrInvalidArgument)
	}
	clean, err := cleanRelative(rel)
	if err != nil {
		return "", err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	p := filepath.Join(absRoot, clean)
	r, err := filepath.Rel(absRoot, p)
	if err != nil {
		return "", err
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: path escapes root: %q", spec.ErrInvalidArgument, rel)
	}
	return p, nil
}

func cleanRelative(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	switch {
	case rel == "":
		return "", fmt.Errorf("%w: path is empty", spec.ErrInvalidArgument)
	case strings.ContainsRune(rel, '\x00'):
		return "", fmt.Errorf("%w: path contains NUL byte", spec.ErrInvalidArgument)
	case filepath.IsAbs(rel):
		return "", fmt.Errorf("%w: path must be relative: %q", spec.ErrInvalidArgument, rel)
	case runtime.GOOS == "windows" && filepath.VolumeName(rel) != "":
		// "C:foo" is relative to a drive, not to root.
		return "", fmt.Errorf("%w: path has a volume name: %q", spec.ErrInvalidArgument, rel)
	}
	clean := filepath.Clean(rel)
	if clean == "." {
		return "", fmt.Errorf("%w: path names the root itself", spec.ErrInvalidArgument)
	}
	return clean, nil
}

// IdentityFromPath returns the identity a document loaded from p carries:
// its base file name.
func IdentityFromPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("%w: path is empty", spec.ErrInvalidArgument)
	}
	base := filepath.Base(p)
	if base == "." || base == ".." || base == string(os.PathSeparator) {
		return "", fmt.Errorf("%w: path has no file name: %q", spec.ErrInvalidArgument, p)
	}
	return base, nil
}

// NumberedName inserts " (n)" before the extension of name:
// NumberedName("a.pdf", 2) == "a (2).pdf".
func NumberedName(name string, n int) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + " (" + strconv.Itoa(n) + ")" + ext
}
