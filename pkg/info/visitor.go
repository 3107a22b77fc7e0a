package info

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/daimatz/classinfo/pkg/classfile"
)

// ClassVisitor populates the cache from one class file. It is bound to the
// class name the caller expects the bytecode to declare.
//
// A package-info class produces a PackageInfo; any other class produces an
// ordinary ClassInfo that is registered when the visit ends. Annotations
// not retained at run time are ignored.
type ClassVisitor struct {
	cache    *Cache
	expected string

	class *ClassInfo
	pkg   *PackageInfo

	fields       []*FieldInfo
	constructors []*MethodInfo
	methods      []*MethodInfo
	annotations  []*AnnotationInfo
}

var _ classfile.ClassVisitor = (*ClassVisitor)(nil)

// NewClassVisitor returns a visitor that populates cache with the class
// named expected.
func NewClassVisitor(cache *Cache, expected string) *ClassVisitor {
	return &ClassVisitor{cache: cache, expected: normalizeName(expected)}
}

// Class returns the ordinary record built by the visit, or nil.
func (cv *ClassVisitor) Class() *ClassInfo { return cv.class }

// Package returns the package record built by the visit, or nil.
func (cv *ClassVisitor) Package() *PackageInfo { return cv.pkg }

func (cv *ClassVisitor) Visit(_ uint32, access uint16, name, _, superName string, interfaces []string) error {
	name = classfile.InternalToBinary(name)
	if name != cv.expected {
		return &VisitError{
			ClassName: cv.expected,
			Err:       fmt.Errorf("%w: bytecode declares %s", ErrNameMismatch, name),
		}
	}

	if isPackageInfo(name) {
		pkgName := packageOf(name)
		if cv.cache.hasPackage(pkgName) {
			return &VisitError{ClassName: name, Err: fmt.Errorf("%w: %s", ErrDuplicatePackage, pkgName)}
		}
		cv.pkg = &PackageInfo{
			name:   cv.cache.interns.PackageNames().Intern(pkgName),
			access: access,
		}
		return nil
	}

	binaryInterfaces := make([]string, len(interfaces))
	for i, iface := range interfaces {
		binaryInterfaces[i] = classfile.InternalToBinary(iface)
	}
	cv.class = cv.cache.newOrdinary(name, access, classfile.InternalToBinary(superName), binaryInterfaces)
	return nil
}

func (cv *ClassVisitor) VisitField(access uint16, name, descriptor, _ string, value any) classfile.FieldVisitor {
	if cv.class == nil {
		return nil
	}
	interns := cv.cache.interns
	if s, ok := value.(string); ok {
		value = interns.Descriptions().Intern(s)
	}
	f := &FieldInfo{
		declaringClass: cv.class,
		name:           interns.FieldNames().Intern(name),
		descriptor:     interns.Descriptions().Intern(descriptor),
		access:         access,
		constant:       value,
	}
	cv.fields = append(cv.fields, f)
	return &fieldVisitor{cache: cv.cache, field: f}
}

func (cv *ClassVisitor) VisitMethod(access uint16, name, descriptor, _ string, exceptions []string) classfile.MethodVisitor {
	if cv.class == nil || name == "<clinit>" {
		return nil
	}
	interns := cv.cache.interns
	m := &MethodInfo{
		declaringClass: cv.class,
		name:           interns.MethodNames().Intern(name),
		descriptor:     interns.Descriptions().Intern(descriptor),
		access:         access,
	}
	if params, ret, err := classfile.ParseMethodDescriptor(descriptor); err == nil {
		m.parameterTypeNames = internAll(interns.ClassNames().Intern, params)
		m.returnTypeName = interns.ClassNames().Intern(ret)
	}
	for _, e := range exceptions {
		m.exceptionTypeNames = append(m.exceptionTypeNames, interns.ClassNames().Intern(classfile.InternalToBinary(e)))
	}

	if m.IsConstructor() {
		cv.constructors = append(cv.constructors, m)
	} else {
		cv.methods = append(cv.methods, m)
	}
	return &methodVisitor{cache: cv.cache, method: m}
}

func (cv *ClassVisitor) VisitAnnotation(descriptor string, visible bool) classfile.AnnotationVisitor {
	if !visible || (cv.class == nil && cv.pkg == nil) {
		return nil
	}
	a, av := cv.cache.newAnnotationVisitor(descriptor)
	if a == nil {
		return nil
	}
	cv.annotations = append(cv.annotations, a)
	return av
}

// VisitEnd freezes the collected members onto the record and registers it.
func (cv *ClassVisitor) VisitEnd() error {
	if cv.pkg != nil {
		cv.pkg.annotations = cv.annotations
		if !cv.cache.AddPackage(cv.pkg) {
			return &VisitError{ClassName: cv.expected, Err: fmt.Errorf("%w: %s", ErrDuplicatePackage, cv.pkg.name)}
		}
		return nil
	}
	if cv.class == nil {
		return nil
	}

	ord := cv.class.ordinary
	ord.fields = cv.fields
	ord.constructors = cv.constructors
	ord.methods = cv.methods
	ord.annotations = cv.annotations
	cv.cache.Register(cv.class)

	// Referenced classes become placeholders; nothing is scanned here.
	if ord.superName != "" {
		cv.cache.ResolveNonPrimitive(ord.superName)
	}
	for _, iface := range ord.interfaceNames {
		cv.cache.ResolveNonPrimitive(iface)
	}
	return nil
}

type fieldVisitor struct {
	cache *Cache
	field *FieldInfo
}

func (fv *fieldVisitor) VisitAnnotation(descriptor string, visible bool) classfile.AnnotationVisitor {
	if !visible {
		return nil
	}
	a, av := fv.cache.newAnnotationVisitor(descriptor)
	if a == nil {
		return nil
	}
	fv.field.annotations = append(fv.field.annotations, a)
	return av
}

func (fv *fieldVisitor) VisitEnd() {}

type methodVisitor struct {
	cache  *Cache
	method *MethodInfo
}

func (mv *methodVisitor) VisitAnnotationDefault() classfile.AnnotationVisitor {
	return &annotationVisitor{
		cache: mv.cache,
		sink:  func(_ string, v *AnnotationValue) { mv.method.annotationDefault = v },
	}
}

func (mv *methodVisitor) VisitAnnotation(descriptor string, visible bool) classfile.AnnotationVisitor {
	if !visible {
		return nil
	}
	a, av := mv.cache.newAnnotationVisitor(descriptor)
	if a == nil {
		return nil
	}
	mv.method.annotations = append(mv.method.annotations, a)
	return av
}

func (mv *methodVisitor) VisitParameterAnnotation(parameter int, descriptor string, visible bool) classfile.AnnotationVisitor {
	if !visible || parameter < 0 {
		return nil
	}
	a, av := mv.cache.newAnnotationVisitor(descriptor)
	if a == nil {
		return nil
	}
	m := mv.method
	for len(m.parameterAnnotations) <= parameter {
		m.parameterAnnotations = append(m.parameterAnnotations, nil)
	}
	m.parameterAnnotations[parameter] = append(m.parameterAnnotations[parameter], a)
	return av
}

func (mv *methodVisitor) VisitEnd() {}

// annotationVisitor routes every value it receives into sink, which either
// sets a named element of an annotation or appends to an array.
type annotationVisitor struct {
	cache *Cache
	sink  func(name string, v *AnnotationValue)
}

func (c *Cache) newAnnotationVisitor(descriptor string) (*AnnotationInfo, *annotationVisitor) {
	className, err := classfile.DescriptorClassName(descriptor)
	if err != nil {
		c.logger.Debug("skipping annotation with malformed descriptor",
			zap.String("descriptor", descriptor), zap.Error(err))
		return nil, nil
	}
	a := newAnnotation(c, className)
	return a, &annotationVisitor{cache: c, sink: a.setValue}
}

func (av *annotationVisitor) Visit(name string, value any) {
	if ct, ok := value.(classfile.ClassType); ok {
		className, err := classfile.DescriptorClassName(ct.Descriptor)
		if err != nil {
			className = ct.Descriptor
		}
		av.sink(name, &AnnotationValue{kind: ValueClass, className: av.cache.interns.ClassNames().Intern(className)})
		return
	}
	if s, ok := value.(string); ok {
		value = av.cache.interns.Descriptions().Intern(s)
	}
	av.sink(name, &AnnotationValue{kind: ValueConstant, constant: value})
}

func (av *annotationVisitor) VisitEnum(name, descriptor, value string) {
	enumType, err := classfile.DescriptorClassName(descriptor)
	if err != nil {
		enumType = descriptor
	}
	interns := av.cache.interns
	av.sink(name, &AnnotationValue{
		kind:        ValueEnum,
		enumType:    interns.ClassNames().Intern(enumType),
		enumLiteral: interns.FieldNames().Intern(value),
	})
}

func (av *annotationVisitor) VisitAnnotation(name, descriptor string) classfile.AnnotationVisitor {
	nested, nv := av.cache.newAnnotationVisitor(descriptor)
	if nested == nil {
		return nil
	}
	av.sink(name, &AnnotationValue{kind: ValueAnnotation, annotation: nested})
	return nv
}

func (av *annotationVisitor) VisitArray(name string) classfile.AnnotationVisitor {
	arr := &AnnotationValue{kind: ValueArray, array: []*AnnotationValue{}}
	av.sink(name, arr)
	return &annotationVisitor{
		cache: av.cache,
		sink:  func(_ string, v *AnnotationValue) { arr.array = append(arr.array, v) },
	}
}

func (av *annotationVisitor) VisitEnd() {}

func internAll(intern func(string) string, values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = intern(v)
	}
	return out
}
