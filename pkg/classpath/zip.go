package classpath

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
)

// jmodMagic starts every JDK jmod file, ahead of the zip data.
var jmodMagic = []byte("JM\x01\x00")

// ZipLocator loads classes from a jar or a JDK jmod file.
type ZipLocator struct {
	path string
	kind string
	// prefix is prepended to resource names; jmods keep classes under
	// "classes/".
	prefix string
	offset int64

	file  *os.File
	index map[string]*zip.File
}

// NewJarLocator creates a locator over a jar file.
func NewJarLocator(path string) *ZipLocator {
	return &ZipLocator{path: path, kind: "jar"}
}

// NewJmodLocator creates a locator over a JDK jmod file.
func NewJmodLocator(path string) *ZipLocator {
	return &ZipLocator{path: path, kind: "jmod", prefix: "classes/", offset: int64(len(jmodMagic))}
}

// Open reads the archive directory and indexes its entries by name.
func (z *ZipLocator) Open() error {
	if z.index != nil {
		return nil
	}
	f, err := os.Open(z.path)
	if err != nil {
		return fmt.Errorf("%s: opening %s: %w", z.kind, z.path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("%s: stat %s: %w", z.kind, z.path, err)
	}
	if z.offset > 0 {
		header := make([]byte, z.offset)
		if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, jmodMagic) {
			f.Close()
			return fmt.Errorf("%s: %s: missing jmod header", z.kind, z.path)
		}
	}

	size := stat.Size() - z.offset
	r, err := zip.NewReader(io.NewSectionReader(f, z.offset, size), size)
	if err != nil {
		f.Close()
		return fmt.Errorf("%s: opening zip %s: %w", z.kind, z.path, err)
	}
	z.index = make(map[string]*zip.File, len(r.File))
	for _, entry := range r.File {
		z.index[entry.Name] = entry
	}
	z.file = f
	return nil
}

func (z *ZipLocator) Close() error {
	if z.file == nil {
		return nil
	}
	err := z.file.Close()
	z.file = nil
	z.index = nil
	if err != nil {
		return fmt.Errorf("%s: closing %s: %w", z.kind, z.path, err)
	}
	return nil
}

func (z *ZipLocator) OpenResource(_, resourceName string) (io.ReadCloser, error) {
	if z.index == nil {
		return nil, fmt.Errorf("%s: %s is not open", z.kind, z.path)
	}
	entry, ok := z.index[z.prefix+resourceName]
	if !ok {
		return nil, notFound(z, resourceName)
	}
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: opening %s: %w", z.kind, entry.Name, err)
	}
	return rc, nil
}

func (z *ZipLocator) String() string { return z.kind + ":" + z.path }
