package info

import (
	"strings"

	"github.com/daimatz/classinfo/pkg/classfile"
)

// Kind selects the variant of a ClassInfo.
type Kind uint8

const (
	// KindOrdinary is a class populated from bytecode, or an artificial
	// stand-in for one that could not be loaded.
	KindOrdinary Kind = iota
	// KindPrimitive is one of the eight primitive types or void.
	KindPrimitive
	// KindArray is an array type. Array records are never cached.
	KindArray
	// KindPlaceholder is a name-only reference resolved on demand.
	KindPlaceholder
)

func (k Kind) String() string {
	switch k {
	case KindOrdinary:
		return "ordinary"
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindPlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

const (
	objectClassName       = "java.lang.Object"
	cloneableClassName    = "java.lang.Cloneable"
	serializableClassName = "java.io.Serializable"
	inheritedClassName    = "java.lang.annotation.Inherited"
	packageInfoSimpleName = "package-info"
)

var primitiveNames = []string{"boolean", "byte", "char", "short", "int", "long", "float", "double", "void"}

// Modifiers the JVM reports for primitive and array classes.
const syntheticTypeModifiers = classfile.AccPublic | classfile.AccFinal | classfile.AccAbstract

// ClassInfo describes one class. Fields common to every kind are held here;
// the arm matching Kind carries the rest. Accessors on a placeholder resolve
// it first, which may scan bytecode.
type ClassInfo struct {
	kind  Kind
	name  string
	cache *Cache

	ordinary    *ordinaryClass
	array       *arrayClass
	placeholder *placeholderClass
}

type ordinaryClass struct {
	access         uint16
	packageName    string
	superName      string
	interfaceNames []string

	fields       []*FieldInfo
	constructors []*MethodInfo
	methods      []*MethodInfo
	annotations  []*AnnotationInfo

	artificial    bool
	forFailedLoad bool

	// placeholder mirrors this record once something resolved through it.
	placeholder *ClassInfo
	table       Table
}

type arrayClass struct {
	element *ClassInfo
}

type placeholderClass struct {
	// target is nil until resolved, and again after the target is evicted.
	target *ClassInfo
}

// Name returns the binary class name, e.g. "java.util.Map$Entry" or "int[]".
func (ci *ClassInfo) Name() string { return ci.name }

// Kind returns the variant of this record. A placeholder reports
// KindPlaceholder whether or not it has been resolved.
func (ci *ClassInfo) Kind() Kind { return ci.kind }

func (ci *ClassInfo) String() string { return ci.name }

func (ci *ClassInfo) IsPlaceholder() bool { return ci.kind == KindPlaceholder }
func (ci *ClassInfo) IsPrimitive() bool   { return ci.kind == KindPrimitive }
func (ci *ClassInfo) IsArray() bool       { return ci.kind == KindArray }

// Concrete returns the record holding this class's data: the ordinary
// target for a placeholder, the receiver otherwise.
func (ci *ClassInfo) Concrete() *ClassInfo {
	if ci.kind == KindPlaceholder {
		return ci.cache.resolvePlaceholder(ci)
	}
	return ci
}

// Target returns the ordinary record a placeholder is currently linked to
// without resolving it, or nil.
func (ci *ClassInfo) Target() *ClassInfo {
	if ci.kind != KindPlaceholder {
		return nil
	}
	return ci.placeholder.target
}

// Placeholder returns the placeholder linked to an ordinary record, or nil.
func (ci *ClassInfo) Placeholder() *ClassInfo {
	if ci.kind != KindOrdinary {
		return nil
	}
	return ci.ordinary.placeholder
}

// IsArtificial reports whether the class is a stand-in synthesized because
// its bytecode could not be loaded.
func (ci *ClassInfo) IsArtificial() bool {
	ci = ci.Concrete()
	return ci.kind == KindOrdinary && ci.ordinary.artificial
}

// IsForFailedLoad reports whether an artificial class stands in for bytecode
// that was present but could not be read or decoded.
func (ci *ClassInfo) IsForFailedLoad() bool {
	ci = ci.Concrete()
	return ci.kind == KindOrdinary && ci.ordinary.forFailedLoad
}

// Modifiers returns the access flags.
func (ci *ClassInfo) Modifiers() uint16 {
	ci = ci.Concrete()
	if ci.kind == KindOrdinary {
		return ci.ordinary.access
	}
	return syntheticTypeModifiers
}

func (ci *ClassInfo) IsPublic() bool    { return ci.Modifiers()&classfile.AccPublic != 0 }
func (ci *ClassInfo) IsAbstract() bool  { return ci.Modifiers()&classfile.AccAbstract != 0 }
func (ci *ClassInfo) IsFinal() bool     { return ci.Modifiers()&classfile.AccFinal != 0 }
func (ci *ClassInfo) IsInterface() bool { return ci.Modifiers()&classfile.AccInterface != 0 }

// IsAnnotationClass reports whether the class is an annotation type.
func (ci *ClassInfo) IsAnnotationClass() bool {
	return ci.Modifiers()&classfile.AccAnnotation != 0
}

// PackageName returns the package of the class; "" for the default package,
// primitives and arrays. Placeholders answer from the name alone.
func (ci *ClassInfo) PackageName() string {
	switch ci.kind {
	case KindOrdinary:
		return ci.ordinary.packageName
	case KindPlaceholder:
		return ci.cache.interns.PackageNames().Intern(packageOf(ci.name))
	default:
		return ""
	}
}

// Package returns the package record, synthesizing an artificial one when
// the package has no package-info.
func (ci *ClassInfo) Package() *PackageInfo {
	name := ci.PackageName()
	if name == "" {
		return nil
	}
	return ci.cache.ResolvePackage(name, true)
}

// SuperclassName returns the superclass name, "" when there is none.
func (ci *ClassInfo) SuperclassName() string {
	ci = ci.Concrete()
	switch ci.kind {
	case KindOrdinary:
		return ci.ordinary.superName
	case KindArray:
		return objectClassName
	default:
		return ""
	}
}

// Superclass returns the superclass record, nil when there is none. The
// result may be a placeholder.
func (ci *ClassInfo) Superclass() *ClassInfo {
	name := ci.SuperclassName()
	if name == "" {
		return nil
	}
	return ci.cache.ResolveNonPrimitive(name)
}

// InterfaceNames returns the names of the directly implemented interfaces.
func (ci *ClassInfo) InterfaceNames() []string {
	ci = ci.Concrete()
	switch ci.kind {
	case KindOrdinary:
		return ci.ordinary.interfaceNames
	case KindArray:
		return []string{cloneableClassName, serializableClassName}
	default:
		return nil
	}
}

// Interfaces returns records for the directly implemented interfaces. The
// results may be placeholders.
func (ci *ClassInfo) Interfaces() []*ClassInfo {
	names := ci.InterfaceNames()
	if len(names) == 0 {
		return nil
	}
	out := make([]*ClassInfo, len(names))
	for i, name := range names {
		out[i] = ci.cache.ResolveNonPrimitive(name)
	}
	return out
}

// ElementType returns the component type of an array, nil otherwise.
func (ci *ClassInfo) ElementType() *ClassInfo {
	if ci.kind != KindArray {
		return nil
	}
	return ci.array.element
}

// DeclaredFields returns the fields declared by the class.
func (ci *ClassInfo) DeclaredFields() []*FieldInfo {
	if ord := ci.Concrete().ordinary; ord != nil {
		return ord.fields
	}
	return nil
}

// DeclaredField returns the declared field with the given name, or nil.
func (ci *ClassInfo) DeclaredField(name string) *FieldInfo {
	for _, f := range ci.DeclaredFields() {
		if f.name == name {
			return f
		}
	}
	return nil
}

// DeclaredConstructors returns the declared "<init>" methods.
func (ci *ClassInfo) DeclaredConstructors() []*MethodInfo {
	if ord := ci.Concrete().ordinary; ord != nil {
		return ord.constructors
	}
	return nil
}

// DeclaredMethods returns the declared methods, excluding constructors and
// static initializers.
func (ci *ClassInfo) DeclaredMethods() []*MethodInfo {
	if ord := ci.Concrete().ordinary; ord != nil {
		return ord.methods
	}
	return nil
}

// DeclaredMethod returns the declared method with the given name and
// descriptor, or nil.
func (ci *ClassInfo) DeclaredMethod(name, descriptor string) *MethodInfo {
	for _, m := range ci.DeclaredMethods() {
		if m.name == name && m.descriptor == descriptor {
			return m
		}
	}
	return nil
}

// DeclaredAnnotations returns the annotations written on the class itself.
func (ci *ClassInfo) DeclaredAnnotations() []*AnnotationInfo {
	if ord := ci.Concrete().ordinary; ord != nil {
		return ord.annotations
	}
	return nil
}

// DeclaredAnnotation returns the declared annotation of the given type, or nil.
func (ci *ClassInfo) DeclaredAnnotation(name string) *AnnotationInfo {
	return findAnnotation(ci.DeclaredAnnotations(), name)
}

// IsDeclaredAnnotationPresent reports whether the class itself carries an
// annotation of the given type.
func (ci *ClassInfo) IsDeclaredAnnotationPresent(name string) bool {
	return ci.DeclaredAnnotation(name) != nil
}

// IsFieldAnnotationPresent reports whether any declared field is annotated.
func (ci *ClassInfo) IsFieldAnnotationPresent() bool {
	for _, f := range ci.DeclaredFields() {
		if len(f.annotations) > 0 {
			return true
		}
	}
	return false
}

// IsMethodAnnotationPresent reports whether any declared method or
// constructor, or any of their parameters, is annotated.
func (ci *ClassInfo) IsMethodAnnotationPresent() bool {
	for _, m := range ci.DeclaredConstructors() {
		if m.isAnnotated() {
			return true
		}
	}
	for _, m := range ci.DeclaredMethods() {
		if m.isAnnotated() {
			return true
		}
	}
	return false
}

// hasAnnotations decides retention: annotated classes are never evicted.
func (ci *ClassInfo) hasAnnotations() bool {
	return len(ci.DeclaredAnnotations()) > 0 || ci.IsFieldAnnotationPresent() || ci.IsMethodAnnotationPresent()
}

func packageOf(className string) string {
	if i := strings.LastIndexByte(className, '.'); i >= 0 {
		return className[:i]
	}
	return ""
}

func isPackageInfo(className string) bool {
	return className == packageInfoSimpleName || strings.HasSuffix(className, "."+packageInfoSimpleName)
}

// packageInfoClassName returns the class name of the package-info for pkg.
func packageInfoClassName(pkg string) string {
	if pkg == "" {
		return packageInfoSimpleName
	}
	return pkg + "." + packageInfoSimpleName
}

var reservedPrefixes = []string{"java.", "javax.ejb.", "javax.servlet.", "jakarta.ejb.", "jakarta.servlet."}

// isJavaClass reports whether a class belongs to a namespace whose records
// are retained for the life of the cache.
func isJavaClass(name string) bool {
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
