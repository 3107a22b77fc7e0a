// Package classpath locates class-file resources by class name.
package classpath

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/daimatz/classinfo/pkg/classfile"
)

// ErrNotFound reports a resource that no classpath entry holds. It matches
// fs.ErrNotExist.
var ErrNotFound = fmt.Errorf("classpath: resource not found: %w", fs.ErrNotExist)

// Locator opens class-file resources.
type Locator interface {
	// Open prepares the locator for use, such as reading a jar's index.
	Open() error
	Close() error
	// OpenResource opens the class-file resource of className. The caller
	// closes the stream. A missing resource yields an error matching
	// ErrNotFound.
	OpenResource(className, resourceName string) (io.ReadCloser, error)
	String() string
}

// ResourceName returns the resource path of a binary class name:
// "com.example.Foo$Bar" -> "com/example/Foo$Bar.class".
func ResourceName(className string) string {
	return classfile.BinaryToInternal(className) + ".class"
}

func notFound(loc Locator, resourceName string) error {
	return fmt.Errorf("%s: %s: %w", loc, resourceName, ErrNotFound)
}

// Parse builds a locator from classpath entries. A ".jar" or ".zip" entry
// is a jar, a ".jmod" entry a JDK module, an "s3://bucket/prefix" entry a
// bucket reached with the given settings, and anything else a directory.
// More than one entry yields a CompositeLocator searching them in order.
func Parse(entries []string, bucket MinioConfig) (Locator, error) {
	locators := make([]Locator, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		switch {
		case strings.HasPrefix(entry, "s3://"):
			cfg := bucket
			cfg.Bucket, cfg.Prefix, _ = strings.Cut(strings.TrimPrefix(entry, "s3://"), "/")
			loc, err := NewMinioLocator(cfg)
			if err != nil {
				return nil, fmt.Errorf("classpath entry %s: %w", entry, err)
			}
			locators = append(locators, loc)
		case strings.EqualFold(filepath.Ext(entry), ".jmod"):
			locators = append(locators, NewJmodLocator(entry))
		case strings.EqualFold(filepath.Ext(entry), ".jar"), strings.EqualFold(filepath.Ext(entry), ".zip"):
			locators = append(locators, NewJarLocator(entry))
		default:
			locators = append(locators, NewOSDirLocator(entry))
		}
	}
	if len(locators) == 0 {
		return nil, fmt.Errorf("classpath: no entries")
	}
	if len(locators) == 1 {
		return locators[0], nil
	}
	return NewCompositeLocator(locators...), nil
}
