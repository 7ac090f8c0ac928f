package image

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrImageNotFound is returned when no file in the image folder matches a reference.
var ErrImageNotFound = errors.New("image not found")

// Extensions tried after the literal reference, in order.
var resolveExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif", ".webp"}

// Pandas writes missing media ids as "NaN"; exports sometimes glue that onto the id.
var nanSuffixes = []string{".NaN", ".nan"}

// Resolver locates image files for media references inside one folder.
type Resolver struct {
	Dir string
}

// NewResolver creates a resolver rooted at dir.
func NewResolver(dir string) *Resolver {
	return &Resolver{Dir: dir}
}

// Candidates returns the paths Resolve will test, in priority order,
// excluding the directory scan.
func (r *Resolver) Candidates(ref string) []string {
	var paths []string
	paths = append(paths, filepath.Join(r.Dir, ref))
	for _, ext := range resolveExtensions {
		if strings.HasSuffix(strings.ToLower(ref), ext) {
			continue
		}
		paths = append(paths, filepath.Join(r.Dir, ref+ext))
	}

	base := ref
	for _, s := range nanSuffixes {
		base = strings.TrimSuffix(base, s)
	}
	if base != ref {
		for _, ext := range []string{".jpg", ".jpeg", ".png"} {
			paths = append(paths, filepath.Join(r.Dir, base+ext))
		}
	}
	return paths
}

// Resolve returns the path of the first file matching ref. The lookup order is
// the literal name, the name with each supported extension appended, the name
// with a NaN artifact removed, and finally any file in the folder whose name
// ends with the reference.
func (r *Resolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || r.Dir == "" {
		return "", ErrImageNotFound
	}

	for _, p := range r.Candidates(ref) {
		if isFile(p) {
			return p, nil
		}
	}

	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return "", ErrImageNotFound
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ref+".jpg") || strings.HasSuffix(name, ref) {
			return filepath.Join(r.Dir, name), nil
		}
	}
	return "", ErrImageNotFound
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
