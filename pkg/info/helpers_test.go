package info

import (
	"bytes"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/daimatz/classinfo/internal/classgen"
	"github.com/daimatz/classinfo/pkg/classfile"
)

// fakeScanner serves generated class files by binary class name.
type fakeScanner struct {
	cache    *Cache
	classes  map[string][]byte
	failures map[string]error
	scanned  []string
}

func (s *fakeScanner) ScanClass(name string) error {
	s.scanned = append(s.scanned, name)
	if err, ok := s.failures[name]; ok {
		return err
	}
	data, ok := s.classes[name]
	if !ok {
		return fmt.Errorf("scanning %s: %w", name, fs.ErrNotExist)
	}
	return classfile.Read(bytes.NewReader(data), NewClassVisitor(s.cache, name))
}

func (s *fakeScanner) add(classes ...*classgen.Class) {
	for _, c := range classes {
		s.classes[classfile.InternalToBinary(c.Name)] = c.Bytes()
	}
}

func (s *fakeScanner) count(name string) int {
	n := 0
	for _, scanned := range s.scanned {
		if scanned == name {
			n++
		}
	}
	return n
}

func newTestCache(t *testing.T, capacity int, classes ...*classgen.Class) (*Cache, *fakeScanner) {
	t.Helper()
	scanner := &fakeScanner{classes: make(map[string][]byte), failures: make(map[string]error)}
	cache, err := NewCache(capacity, WithScanner(scanner))
	require.NoError(t, err)
	scanner.cache = cache
	scanner.add(classes...)
	return cache, scanner
}

func newObservedCache(t *testing.T, capacity int) (*Cache, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	cache, err := NewCache(capacity, WithLogger(zap.New(core)))
	require.NoError(t, err)
	return cache, logs
}

// populate drives a ClassVisitor over c, which registers it with cache.
func populate(t *testing.T, cache *Cache, c *classgen.Class) *ClassInfo {
	t.Helper()
	cv := NewClassVisitor(cache, classfile.InternalToBinary(c.Name))
	require.NoError(t, classfile.Read(bytes.NewReader(c.Bytes()), cv))
	return cv.Class()
}

func class(name, super string, interfaces ...string) *classgen.Class {
	return &classgen.Class{
		Name:       name,
		Super:      super,
		Interfaces: interfaces,
		Access:     classfile.AccPublic | classfile.AccSuper,
	}
}

func iface(name string, interfaces ...string) *classgen.Class {
	return &classgen.Class{
		Name:       name,
		Super:      "java/lang/Object",
		Interfaces: interfaces,
		Access:     classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract,
	}
}

func annotationType(name string, inherited bool, methods ...classgen.Method) *classgen.Class {
	c := &classgen.Class{
		Name:       name,
		Super:      "java/lang/Object",
		Interfaces: []string{"java/lang/annotation/Annotation"},
		Access:     classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract | classfile.AccAnnotation,
		Methods:    methods,
		Annotations: []classgen.Annotation{{
			Type: "Ljava/lang/annotation/Retention;",
			Elements: []classgen.Element{{
				Name:  "value",
				Value: classgen.Enum{Type: "Ljava/lang/annotation/RetentionPolicy;", Const: "RUNTIME"},
			}},
		}},
	}
	if inherited {
		c.Annotations = append(c.Annotations, classgen.Annotation{Type: "Ljava/lang/annotation/Inherited;"})
	}
	return c
}

func ann(desc string, elements ...classgen.Element) classgen.Annotation {
	return classgen.Annotation{Type: desc, Elements: elements}
}

func methodNames(methods []*MethodInfo) []string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.DeclaringClass().Name() + "." + m.Name() + m.Descriptor()
	}
	return names
}

func annotationNames(anns []*AnnotationInfo) []string {
	names := make([]string, len(anns))
	for i, a := range anns {
		names[i] = a.ClassName()
	}
	return names
}
