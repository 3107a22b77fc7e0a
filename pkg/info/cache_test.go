package info

import (
	"errors"
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/classinfo/internal/classgen"
	"github.com/daimatz/classinfo/pkg/classfile"
)

func TestNewCacheInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := NewCache(capacity)
		assert.ErrorIs(t, err, ErrInvalidCapacity)
	}
}

func TestRegisterRouting(t *testing.T) {
	tests := []struct {
		name  string
		class *classgen.Class
		want  Table
	}{
		{"plain", class("com/example/Plain", "java/lang/Object"), TableEvictable},
		{"java", class("java/util/Thing", "java/lang/Object"), TableJava},
		{"servlet", class("jakarta/servlet/Thing", "java/lang/Object"), TableJava},
		{
			"class annotation",
			&classgen.Class{Name: "com/example/A", Super: "java/lang/Object", Annotations: []classgen.Annotation{ann("Lcom/example/Marker;")}},
			TableAnnotated,
		},
		{
			"field annotation",
			&classgen.Class{Name: "com/example/F", Super: "java/lang/Object", Fields: []classgen.Field{
				{Name: "f", Descriptor: "I", Annotations: []classgen.Annotation{ann("Lcom/example/Marker;")}},
			}},
			TableAnnotated,
		},
		{
			"parameter annotation",
			&classgen.Class{Name: "com/example/P", Super: "java/lang/Object", Methods: []classgen.Method{
				{Name: "m", Descriptor: "(I)V", ParameterAnnotations: [][]classgen.Annotation{{ann("Lcom/example/Marker;")}}},
			}},
			TableAnnotated,
		},
		{
			"invisible annotation only",
			&classgen.Class{Name: "com/example/I", Super: "java/lang/Object", InvisibleAnnotations: []classgen.Annotation{ann("Lcom/example/Marker;")}},
			TableEvictable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, err := NewCache(10)
			require.NoError(t, err)
			ci := populate(t, cache, tt.class)
			require.NotNil(t, ci)
			assert.Equal(t, tt.want, cache.Location(ci.Name()))
			assert.Same(t, ci, cache.Resolve(ci.Name()))
		})
	}
}

func TestEvictableCapacityBound(t *testing.T) {
	cache, err := NewCache(3)
	require.NoError(t, err)
	var names []string
	for i := 0; i < 20; i++ {
		ci := populate(t, cache, class(fmt.Sprintf("com/example/C%d", i), "java/lang/Object"))
		names = append(names, ci.Name())
		assert.LessOrEqual(t, cache.Stats().EvictableClasses, 3)
	}
	assert.Equal(t, names[17:], cache.EvictableNames())
	assert.Equal(t, 17, cache.Stats().Evictions)
	assert.Equal(t, TableNone, cache.Location(names[0]))
}

func TestEvictionLeastRecentlyUsed(t *testing.T) {
	x := class("com/example/X", "java/lang/Object")
	y := class("com/example/Y", "java/lang/Object")
	z := class("com/example/Z", "java/lang/Object")

	t.Run("insertion order", func(t *testing.T) {
		cache, err := NewCache(2)
		require.NoError(t, err)
		populate(t, cache, x)
		populate(t, cache, y)
		populate(t, cache, z)
		assert.Equal(t, []string{"com.example.Y", "com.example.Z"}, cache.EvictableNames())
		assert.Equal(t, TableNone, cache.Location("com.example.X"))
	})

	t.Run("record access promotes", func(t *testing.T) {
		cache, err := NewCache(2)
		require.NoError(t, err)
		xi := populate(t, cache, x)
		populate(t, cache, y)
		cache.RecordAccess(xi)
		populate(t, cache, z)
		assert.Equal(t, []string{"com.example.X", "com.example.Z"}, cache.EvictableNames())
	})

	t.Run("resolve does not promote", func(t *testing.T) {
		cache, err := NewCache(2)
		require.NoError(t, err)
		xi := populate(t, cache, x)
		populate(t, cache, y)
		assert.Same(t, xi, cache.Resolve("com.example.X"))
		populate(t, cache, z)
		assert.Equal(t, []string{"com.example.Y", "com.example.Z"}, cache.EvictableNames())
	})

	t.Run("placeholder access promotes", func(t *testing.T) {
		cache, err := NewCache(2)
		require.NoError(t, err)
		ph := cache.Resolve("com.example.X")
		require.True(t, ph.IsPlaceholder())
		xi := populate(t, cache, x)
		require.Same(t, xi, ph.Target())
		populate(t, cache, y)
		assert.Same(t, xi, ph.Concrete())
		populate(t, cache, z)
		assert.Equal(t, []string{"com.example.X", "com.example.Z"}, cache.EvictableNames())
	})
}

func TestEvictionClearsPlaceholderLink(t *testing.T) {
	cache, scanner := newTestCache(t, 1,
		class("com/example/X", "java/lang/Object"),
		class("com/example/Y", "java/lang/Object"),
	)
	ph := cache.Resolve("com.example.X")
	require.True(t, ph.IsPlaceholder())
	assert.Nil(t, ph.Target())

	x := ph.Concrete()
	require.Equal(t, KindOrdinary, x.Kind())
	assert.Same(t, x, ph.Target())
	assert.Same(t, ph, x.Placeholder())

	require.NotNil(t, cache.ResolveConcrete("com.example.Y"))
	assert.Nil(t, ph.Target())
	assert.Nil(t, x.Placeholder())
	assert.Equal(t, TablePlaceholder, cache.Location("com.example.X"))
	assert.Equal(t, 1, cache.Stats().Evictions)

	again := ph.Concrete()
	assert.NotSame(t, x, again)
	assert.Same(t, again, ph.Target())
	assert.Equal(t, "com.example.X", again.Name())
	assert.Equal(t, 2, scanner.count("com.example.X"))
}

func TestDuplicateRegistration(t *testing.T) {
	cache, logs := newObservedCache(t, 10)
	x := populate(t, cache, class("com/example/X", "java/lang/Object"))

	assert.False(t, cache.Register(x))
	other := cache.newOrdinary("com.example.X", classfile.AccPublic, "java.lang.Object", nil)
	assert.False(t, cache.Register(other))
	assert.Same(t, x, cache.ResolveConcrete("com.example.X"))
	assert.Equal(t, []string{"com.example.X"}, cache.EvictableNames())

	assert.Equal(t, 1, logs.FilterMessage("duplicate registration of class").Len())
	assert.Equal(t, 1, logs.FilterMessage("conflicting registration of class; keeping existing record").Len())

	assert.False(t, cache.Register(cache.Resolve("com.example.Other")))
	assert.Equal(t, 1, logs.FilterMessage("rejected registration of non-ordinary class").Len())
}

func TestRemoveAsDelayable(t *testing.T) {
	cache, err := NewCache(2)
	require.NoError(t, err)
	ph := cache.Resolve("com.example.X")
	x := populate(t, cache, class("com/example/X", "java/lang/Object"))
	require.Equal(t, TableEvictable, cache.Location("com.example.X"))

	assert.True(t, cache.RemoveAsDelayable(x))
	assert.Equal(t, TableAnnotated, cache.Location("com.example.X"))
	assert.Same(t, x, ph.Target())
	assert.Equal(t, 0, cache.Stats().Evictions)
	assert.Empty(t, cache.EvictableNames())
	assert.False(t, cache.RemoveAsDelayable(x))

	for _, name := range []string{"com/example/Y", "com/example/Z", "com/example/W"} {
		populate(t, cache, class(name, "java/lang/Object"))
	}
	assert.Same(t, x, cache.Resolve("com.example.X"))
	assert.Same(t, x, ph.Target())
}

func TestResolvePrimitivesAndArrays(t *testing.T) {
	cache, err := NewCache(10)
	require.NoError(t, err)

	for _, name := range primitiveNames {
		p := cache.Resolve(name)
		assert.True(t, p.IsPrimitive(), name)
		assert.Same(t, p, cache.Resolve(name))
		assert.Same(t, p, cache.ResolveConcrete(name))
		assert.Equal(t, TablePrimitive, cache.Location(name))
		assert.Equal(t, uint16(syntheticTypeModifiers), p.Modifiers())
		assert.Nil(t, p.Superclass())
	}
	assert.True(t, cache.ResolveNonPrimitive("int").IsPlaceholder())

	a := cache.Resolve("java.lang.String[]")
	b := cache.Resolve("[Ljava.lang.String;")
	assert.NotSame(t, a, b)
	assert.Equal(t, "java.lang.String[]", b.Name())
	assert.True(t, a.IsArray())
	assert.Equal(t, "java.lang.String", a.ElementType().Name())
	assert.Equal(t, "java.lang.Object", a.SuperclassName())
	assert.Equal(t, []string{"java.lang.Cloneable", "java.io.Serializable"}, a.InterfaceNames())
	assert.Same(t, cache.Resolve("int"), cache.Resolve("int[][]").ElementType().ElementType())
	assert.Equal(t, TableNone, cache.Location("java.lang.String[]"))

	assert.Equal(t, "com.example.Foo", cache.Resolve("com/example/Foo").Name())

	ci, err := cache.ResolveDescriptor("[I")
	require.NoError(t, err)
	assert.Equal(t, "int[]", ci.Name())
	ci, err = cache.ResolveDescriptor("Ljava/util/List;")
	require.NoError(t, err)
	assert.Equal(t, "java.util.List", ci.Name())
	_, err = cache.ResolveDescriptor("Q")
	assert.Error(t, err)
}

func TestResolveConcreteWithoutScanner(t *testing.T) {
	cache, err := NewCache(10)
	require.NoError(t, err)
	assert.Nil(t, cache.ResolveConcrete("com.example.Missing"))
	assert.Equal(t, TableNone, cache.Location("com.example.Missing"))
}

func TestResolveConcreteNotFound(t *testing.T) {
	foo := class("com/example/Foo", "java/lang/Object", "com/example/Bar")
	cache, scanner := newTestCache(t, 10, foo)

	ci := cache.ResolveConcrete("com.example.Foo")
	require.NotNil(t, ci)
	assert.False(t, ci.IsArtificial())
	assert.Equal(t, "java.lang.Object", ci.SuperclassName())

	ifaces := ci.Interfaces()
	require.Len(t, ifaces, 1)
	bar := ifaces[0]
	assert.True(t, bar.IsPlaceholder())
	assert.Equal(t, "com.example.Bar", bar.Name())

	assert.Nil(t, cache.ResolveConcrete("com.example.Bar"))
	assert.True(t, bar.IsArtificial())
	assert.False(t, bar.IsForFailedLoad())
	assert.Equal(t, "java.lang.Object", bar.SuperclassName())

	resolved := cache.ResolveConcrete("com.example.Bar")
	require.NotNil(t, resolved)
	assert.Same(t, resolved, bar.Target())
	assert.Equal(t, 2, scanner.count("com.example.Bar"))

	stats := cache.Stats()
	assert.Equal(t, 1, stats.ArtificialClasses)
	assert.Equal(t, 2, stats.ScanFailures)
}

func TestResolveConcreteLoadFailure(t *testing.T) {
	cache, scanner := newTestCache(t, 10)
	scanner.failures["com.example.Broken"] = errors.New("stream reset")
	scanner.classes["com.example.Garbled"] = []byte{0xCA, 0xFE, 0xBA}

	for _, name := range []string{"com.example.Broken", "com.example.Garbled"} {
		ci := cache.ResolveConcrete(name)
		require.NotNil(t, ci, name)
		assert.True(t, ci.IsArtificial(), name)
		assert.True(t, ci.IsForFailedLoad(), name)
		assert.Equal(t, "java.lang.Object", ci.SuperclassName())
		assert.Empty(t, ci.DeclaredMethods())

		assert.Same(t, ci, cache.ResolveConcrete(name))
		assert.Equal(t, 1, scanner.count(name))
		assert.Equal(t, TableFailed, cache.Location(name))
	}
	assert.Equal(t, 2, cache.Stats().FailedClasses)
}

func TestFailedLoadIsNeverEvicted(t *testing.T) {
	cache, scanner := newTestCache(t, 1,
		class("com/example/Other", "java/lang/Object"),
		class("com/example/Third", "java/lang/Object"),
	)
	scanner.classes["com.example.Bad"] = []byte("garbage")

	bad := cache.ResolveConcrete("com.example.Bad")
	require.NotNil(t, bad)
	require.NotNil(t, cache.ResolveConcrete("com.example.Other"))
	require.NotNil(t, cache.ResolveConcrete("com.example.Third"))
	require.Equal(t, 1, cache.Stats().Evictions)

	assert.Same(t, bad, cache.ResolveConcrete("com.example.Bad"))
	assert.Same(t, bad, cache.Resolve("com.example.Bad").Concrete())
	assert.Equal(t, 1, scanner.count("com.example.Bad"))
	assert.Equal(t, TableFailed, cache.Location("com.example.Bad"))
	assert.Equal(t, []string{"com.example.Third"}, cache.EvictableNames())
}

func TestScannerUnavailableRecordsNothing(t *testing.T) {
	cache, scanner := newTestCache(t, 10, class("com/example/Foo", "java/lang/Object"))
	unavailable := fmt.Errorf("scanning: %w", ErrScannerUnavailable)
	scanner.failures["com.example.Foo"] = unavailable
	scanner.failures["com.example.package-info"] = unavailable

	assert.Nil(t, cache.ResolveConcrete("com.example.Foo"))
	assert.Nil(t, cache.ResolvePackage("com.example", true))
	ph := cache.Resolve("com.example.Foo")
	assert.True(t, ph.IsArtificial())
	assert.False(t, ph.IsForFailedLoad())
	assert.Nil(t, ph.Target())

	stats := cache.Stats()
	assert.Zero(t, stats.ScanFailures)
	assert.Zero(t, stats.ArtificialClasses)
	assert.Equal(t, TablePlaceholder, cache.Location("com.example.Foo"))

	delete(scanner.failures, "com.example.Foo")
	foo := ph.Concrete()
	assert.False(t, foo.IsArtificial())
	assert.Same(t, foo, ph.Target())
	assert.Equal(t, TableEvictable, cache.Location("com.example.Foo"))
}

func TestPlaceholderWithoutScannerAcceptsLaterRegistration(t *testing.T) {
	cache, logs := newObservedCache(t, 10)
	ph := cache.Resolve("com.example.Late")
	assert.True(t, ph.IsArtificial())
	assert.Equal(t, "java.lang.Object", ph.SuperclassName())
	assert.Nil(t, ph.Target())
	assert.Equal(t, TablePlaceholder, cache.Location("com.example.Late"))

	late := populate(t, cache, class("com/example/Late", "java/lang/Object"))
	assert.Same(t, late, ph.Target())
	assert.False(t, ph.IsArtificial())
	assert.Zero(t, logs.FilterMessage("conflicting registration of class; keeping existing record").Len())
}

func TestArtificialObjectHasNoSuperclass(t *testing.T) {
	cache, _ := newTestCache(t, 10)
	object := cache.Resolve("java.lang.Object")
	assert.True(t, object.IsArtificial())
	assert.Equal(t, "", object.SuperclassName())
	assert.Nil(t, object.Superclass())
	assert.Equal(t, TableJava, cache.Location("java.lang.Object"))
}

func TestPackages(t *testing.T) {
	pkgInfo := &classgen.Class{
		Name:        "com/example/package-info",
		Super:       "java/lang/Object",
		Access:      classfile.AccInterface | classfile.AccAbstract | classfile.AccSynthetic,
		Annotations: []classgen.Annotation{ann("Lcom/example/Marker;")},
	}
	cache, scanner := newTestCache(t, 10, pkgInfo, class("com/example/Foo", "java/lang/Object"))
	scanner.classes["com.broken.package-info"] = []byte{1, 2, 3}

	t.Run("from package-info", func(t *testing.T) {
		p := cache.GetPackage("com.example")
		require.NotNil(t, p)
		assert.False(t, p.IsArtificial())
		assert.Equal(t, "com.example", p.Name())
		assert.True(t, p.IsAnnotationPresent("com.example.Marker"))
		assert.Same(t, p, cache.GetPackage("com.example"))
		assert.Same(t, p, cache.ResolveConcrete("com.example.Foo").Package())
		assert.Equal(t, 1, scanner.count("com.example.package-info"))
		assert.Equal(t, TableNone, cache.Location("com.example.package-info"))
	})

	t.Run("missing", func(t *testing.T) {
		assert.Nil(t, cache.GetPackage("org.none"))
		p := cache.ResolvePackage("org.none", true)
		require.NotNil(t, p)
		assert.True(t, p.IsArtificial())
		assert.False(t, p.IsForFailedLoad())
		assert.Same(t, p, cache.GetPackage("org.none"))
	})

	t.Run("failed load", func(t *testing.T) {
		p := cache.GetPackage("com.broken")
		require.NotNil(t, p)
		assert.True(t, p.IsArtificial())
		assert.True(t, p.IsForFailedLoad())
	})

	t.Run("class package", func(t *testing.T) {
		ph := cache.Resolve("org.other.Thing")
		assert.Equal(t, "org.other", ph.PackageName())
		assert.True(t, ph.Package().IsArtificial())
		assert.Nil(t, cache.Resolve("int").Package())
	})
}

func TestNamesAreInterned(t *testing.T) {
	cache, err := NewCache(10)
	require.NoError(t, err)
	a := populate(t, cache, class("com/example/A", "com/example/Base"))
	b := populate(t, cache, class("com/example/B", "com/example/Base"))
	assert.Same(t, unsafe.StringData(a.SuperclassName()), unsafe.StringData(b.SuperclassName()))
	assert.Same(t, unsafe.StringData(a.PackageName()), unsafe.StringData(b.PackageName()))
	assert.Same(t, a.Superclass(), b.Superclass())
}

func TestStats(t *testing.T) {
	cache, _ := newTestCache(t, 5, class("com/example/Foo", "java/lang/Object"))
	require.NotNil(t, cache.ResolveConcrete("com.example.Foo"))
	cache.ResolveConcrete("com.example.Missing")

	stats := cache.Stats()
	assert.Equal(t, 5, stats.Capacity)
	assert.Equal(t, 1, stats.EvictableClasses)
	assert.Equal(t, 1, stats.Placeholders)
	assert.Equal(t, 2, stats.ScansRequested)
	assert.Equal(t, 1, stats.ScanFailures)
	assert.Len(t, stats.Interns, 5)
}
