package info

import (
	"github.com/daimatz/classinfo/pkg/classfile"
)

// FieldInfo describes a declared field.
type FieldInfo struct {
	declaringClass *ClassInfo
	name           string
	descriptor     string
	access         uint16
	constant       any
	annotations    []*AnnotationInfo
}

func (f *FieldInfo) Name() string                   { return f.name }
func (f *FieldInfo) Descriptor() string             { return f.descriptor }
func (f *FieldInfo) Modifiers() uint16              { return f.access }
func (f *FieldInfo) DeclaringClass() *ClassInfo     { return f.declaringClass }
func (f *FieldInfo) QualifiedName() string          { return f.declaringClass.name + "." + f.name }
func (f *FieldInfo) String() string                 { return f.QualifiedName() }
func (f *FieldInfo) IsStatic() bool                 { return f.access&classfile.AccStatic != 0 }
func (f *FieldInfo) IsFinal() bool                  { return f.access&classfile.AccFinal != 0 }
func (f *FieldInfo) IsPrivate() bool                { return f.access&classfile.AccPrivate != 0 }
func (f *FieldInfo) IsSynthetic() bool              { return f.access&classfile.AccSynthetic != 0 }
func (f *FieldInfo) ConstantValue() any             { return f.constant }
func (f *FieldInfo) Annotations() []*AnnotationInfo { return f.annotations }

// TypeName returns the binary name of the field type.
func (f *FieldInfo) TypeName() string {
	name, err := classfile.DescriptorClassName(f.descriptor)
	if err != nil {
		return f.descriptor
	}
	return name
}

// Type returns the field type, possibly as a placeholder.
func (f *FieldInfo) Type() *ClassInfo {
	return f.declaringClass.cache.Resolve(f.TypeName())
}

// IsAnnotationPresent reports whether the field carries an annotation of the
// given type. Field annotations are never inherited.
func (f *FieldInfo) IsAnnotationPresent(name string) bool {
	return findAnnotation(f.annotations, name) != nil
}

// Annotation returns the field's annotation of the given type, or nil.
func (f *FieldInfo) Annotation(name string) *AnnotationInfo {
	return findAnnotation(f.annotations, name)
}

// MethodInfo describes a declared method or constructor.
type MethodInfo struct {
	declaringClass     *ClassInfo
	name               string
	descriptor         string
	access             uint16
	parameterTypeNames []string
	returnTypeName     string
	exceptionTypeNames []string

	annotations          []*AnnotationInfo
	parameterAnnotations [][]*AnnotationInfo
	annotationDefault    *AnnotationValue
}

func (m *MethodInfo) Name() string               { return m.name }
func (m *MethodInfo) Descriptor() string         { return m.descriptor }
func (m *MethodInfo) Modifiers() uint16          { return m.access }
func (m *MethodInfo) DeclaringClass() *ClassInfo { return m.declaringClass }
func (m *MethodInfo) QualifiedName() string      { return m.declaringClass.name + "." + m.name }
func (m *MethodInfo) String() string             { return m.declaringClass.name + "." + m.name + m.descriptor }
func (m *MethodInfo) IsConstructor() bool        { return m.name == "<init>" }
func (m *MethodInfo) IsStatic() bool             { return m.access&classfile.AccStatic != 0 }
func (m *MethodInfo) IsAbstract() bool           { return m.access&classfile.AccAbstract != 0 }
func (m *MethodInfo) IsPrivate() bool            { return m.access&classfile.AccPrivate != 0 }
func (m *MethodInfo) IsPublic() bool             { return m.access&classfile.AccPublic != 0 }
func (m *MethodInfo) IsProtected() bool          { return m.access&classfile.AccProtected != 0 }
func (m *MethodInfo) IsBridge() bool             { return m.access&classfile.AccBridge != 0 }
func (m *MethodInfo) IsSynthetic() bool          { return m.access&classfile.AccSynthetic != 0 }

// IsPackagePrivate reports whether the method has default access.
func (m *MethodInfo) IsPackagePrivate() bool {
	return m.access&(classfile.AccPublic|classfile.AccProtected|classfile.AccPrivate) == 0
}

func (m *MethodInfo) ParameterTypeNames() []string { return m.parameterTypeNames }
func (m *MethodInfo) ReturnTypeName() string       { return m.returnTypeName }
func (m *MethodInfo) ExceptionTypeNames() []string { return m.exceptionTypeNames }

// ParameterTypes resolves the parameter types; results may be placeholders.
func (m *MethodInfo) ParameterTypes() []*ClassInfo {
	return m.declaringClass.cache.resolveAll(m.parameterTypeNames)
}

// ReturnType resolves the return type.
func (m *MethodInfo) ReturnType() *ClassInfo {
	return m.declaringClass.cache.Resolve(m.returnTypeName)
}

// ExceptionTypes resolves the declared thrown types.
func (m *MethodInfo) ExceptionTypes() []*ClassInfo {
	return m.declaringClass.cache.resolveAll(m.exceptionTypeNames)
}

// Annotations returns the method's own annotations. Method annotations are
// never inherited through overriding.
func (m *MethodInfo) Annotations() []*AnnotationInfo { return m.annotations }

func (m *MethodInfo) IsAnnotationPresent(name string) bool {
	return findAnnotation(m.annotations, name) != nil
}

func (m *MethodInfo) Annotation(name string) *AnnotationInfo {
	return findAnnotation(m.annotations, name)
}

// ParameterAnnotations returns one annotation list per parameter.
func (m *MethodInfo) ParameterAnnotations() [][]*AnnotationInfo {
	return m.parameterAnnotations
}

// AnnotationDefault returns the default value of an annotation type
// element, or nil.
func (m *MethodInfo) AnnotationDefault() *AnnotationValue {
	return m.annotationDefault
}

func (m *MethodInfo) isAnnotated() bool {
	if len(m.annotations) > 0 {
		return true
	}
	for _, anns := range m.parameterAnnotations {
		if len(anns) > 0 {
			return true
		}
	}
	return false
}

// overrides reports whether m and other have the same name and raw
// descriptor. Bridge methods differ from their targets by return type and
// so are distinct.
func (m *MethodInfo) overrides(other *MethodInfo) bool {
	return m.name == other.name && m.descriptor == other.descriptor
}
