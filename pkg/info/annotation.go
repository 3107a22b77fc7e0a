package info

import (
	"fmt"
	"sort"
	"strings"
)

// AnnotationInfo is one annotation occurrence.
type AnnotationInfo struct {
	cache     *Cache
	className string
	values    map[string]*AnnotationValue
}

func newAnnotation(cache *Cache, className string) *AnnotationInfo {
	return &AnnotationInfo{
		cache:     cache,
		className: cache.interns.ClassNames().Intern(className),
		values:    make(map[string]*AnnotationValue),
	}
}

// ClassName returns the binary name of the annotation type.
func (a *AnnotationInfo) ClassName() string { return a.className }

// AnnotationClass returns the annotation type, possibly as a placeholder.
func (a *AnnotationInfo) AnnotationClass() *ClassInfo {
	return a.cache.ResolveNonPrimitive(a.className)
}

// ValueNames returns the explicitly written element names, sorted.
func (a *AnnotationInfo) ValueNames() []string {
	names := make([]string, 0, len(a.values))
	for name := range a.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeclaredValue returns the explicitly written value of an element, or nil.
func (a *AnnotationInfo) DeclaredValue(name string) *AnnotationValue {
	return a.values[name]
}

// Value returns the written value of an element, falling back to the
// default declared on the annotation type.
func (a *AnnotationInfo) Value(name string) *AnnotationValue {
	if v, ok := a.values[name]; ok {
		return v
	}
	for _, m := range a.AnnotationClass().DeclaredMethods() {
		if m.name == name && m.annotationDefault != nil {
			return m.annotationDefault
		}
	}
	return nil
}

// IsInherited reports whether the annotation type is meta-annotated with
// java.lang.annotation.Inherited.
func (a *AnnotationInfo) IsInherited() bool {
	return a.AnnotationClass().IsDeclaredAnnotationPresent(inheritedClassName)
}

func (a *AnnotationInfo) setValue(name string, v *AnnotationValue) {
	a.values[a.cache.interns.MethodNames().Intern(name)] = v
}

func (a *AnnotationInfo) String() string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(a.className)
	if len(a.values) > 0 {
		b.WriteString("(")
		for i, name := range a.ValueNames() {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", name, a.values[name])
		}
		b.WriteString(")")
	}
	return b.String()
}

func findAnnotation(anns []*AnnotationInfo, name string) *AnnotationInfo {
	for _, a := range anns {
		if a.className == name {
			return a
		}
	}
	return nil
}

// ValueKind selects the variant of an AnnotationValue.
type ValueKind uint8

const (
	// ValueConstant is a primitive or string constant.
	ValueConstant ValueKind = iota
	// ValueClass is a class literal.
	ValueClass
	ValueEnum
	ValueAnnotation
	ValueArray
)

// AnnotationValue is an annotation element value.
type AnnotationValue struct {
	kind ValueKind

	constant    any
	className   string
	enumType    string
	enumLiteral string
	annotation  *AnnotationInfo
	array       []*AnnotationValue
}

func (v *AnnotationValue) Kind() ValueKind { return v.kind }

// Object returns the underlying Go value: the constant, the class name, the
// enum literal, the nested *AnnotationInfo, or the []*AnnotationValue.
func (v *AnnotationValue) Object() any {
	switch v.kind {
	case ValueConstant:
		return v.constant
	case ValueClass:
		return v.className
	case ValueEnum:
		return v.enumLiteral
	case ValueAnnotation:
		return v.annotation
	default:
		return v.array
	}
}

// StringValue returns a string constant, or the textual form of any other
// value.
func (v *AnnotationValue) StringValue() string {
	if s, ok := v.constant.(string); ok {
		return s
	}
	return v.String()
}

// BoolValue returns a boolean constant; false for other values.
func (v *AnnotationValue) BoolValue() bool {
	b, _ := v.constant.(bool)
	return b
}

// IntValue widens any integral or character constant.
func (v *AnnotationValue) IntValue() (int64, bool) {
	switch c := v.constant.(type) {
	case int8:
		return int64(c), true
	case int16:
		return int64(c), true
	case uint16:
		return int64(c), true
	case int32:
		return int64(c), true
	case int64:
		return c, true
	default:
		return 0, false
	}
}

// FloatValue widens a float or double constant.
func (v *AnnotationValue) FloatValue() (float64, bool) {
	switch c := v.constant.(type) {
	case float32:
		return float64(c), true
	case float64:
		return c, true
	default:
		return 0, false
	}
}

func (v *AnnotationValue) ClassName() string                { return v.className }
func (v *AnnotationValue) EnumType() string                 { return v.enumType }
func (v *AnnotationValue) EnumLiteral() string              { return v.enumLiteral }
func (v *AnnotationValue) AnnotationValue() *AnnotationInfo { return v.annotation }
func (v *AnnotationValue) ArrayValue() []*AnnotationValue   { return v.array }

func (v *AnnotationValue) String() string {
	switch v.kind {
	case ValueConstant:
		if s, ok := v.constant.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprint(v.constant)
	case ValueClass:
		return v.className + ".class"
	case ValueEnum:
		return v.enumType + "." + v.enumLiteral
	case ValueAnnotation:
		return v.annotation.String()
	default:
		parts := make([]string, len(v.array))
		for i, elem := range v.array {
			parts[i] = elem.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
}
