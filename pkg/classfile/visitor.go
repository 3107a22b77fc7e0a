package classfile

import "io"

// ClassVisitor receives the contents of one class file. Accept calls, in
// order: Visit once, VisitField and VisitMethod for each member in
// declaration order, VisitAnnotation for each class annotation, then VisitEnd.
//
// Class, superclass, interface and exception names are internal names
// ("java/lang/Object"). A nil nested visitor skips that element. A non-nil
// error from Visit or VisitEnd stops the walk and is returned by Accept.
type ClassVisitor interface {
	Visit(version uint32, access uint16, name, signature, superName string, interfaces []string) error
	VisitField(access uint16, name, descriptor, signature string, value any) FieldVisitor
	VisitMethod(access uint16, name, descriptor, signature string, exceptions []string) MethodVisitor
	VisitAnnotation(descriptor string, visible bool) AnnotationVisitor
	VisitEnd() error
}

// FieldVisitor receives the annotations of one field.
type FieldVisitor interface {
	VisitAnnotation(descriptor string, visible bool) AnnotationVisitor
	VisitEnd()
}

// MethodVisitor receives the annotation default, annotations and parameter
// annotations of one method, in that order.
type MethodVisitor interface {
	VisitAnnotationDefault() AnnotationVisitor
	VisitAnnotation(descriptor string, visible bool) AnnotationVisitor
	VisitParameterAnnotation(parameter int, descriptor string, visible bool) AnnotationVisitor
	VisitEnd()
}

// AnnotationVisitor receives annotation element values. Names are empty for
// array elements and for an annotation default value.
//
// Visit receives int8, uint16, int16, int32, int64, float32, float64, bool,
// string or ClassType values.
type AnnotationVisitor interface {
	Visit(name string, value any)
	VisitEnum(name, descriptor, value string)
	VisitAnnotation(name, descriptor string) AnnotationVisitor
	VisitArray(name string) AnnotationVisitor
	VisitEnd()
}

// Read parses a class file from r and drives cv over it.
func Read(r io.Reader, cv ClassVisitor) error {
	cf, err := Parse(r)
	if err != nil {
		return err
	}
	return Accept(cf, cv)
}

// Accept drives cv over a parsed class file.
func Accept(cf *ClassFile, cv ClassVisitor) error {
	name, err := cf.ClassName()
	if err != nil {
		return err
	}
	interfaces, err := cf.InterfaceNames()
	if err != nil {
		return err
	}
	version := uint32(cf.MajorVersion)<<16 | uint32(cf.MinorVersion)
	if err := cv.Visit(version, cf.AccessFlags, name, cf.Signature, cf.SuperClassName(), interfaces); err != nil {
		return err
	}

	for i := range cf.Fields {
		f := &cf.Fields[i]
		fv := cv.VisitField(f.AccessFlags, f.Name, f.Descriptor, f.Signature, f.ConstantValue)
		if fv == nil {
			continue
		}
		acceptAnnotations(f.Annotations, true, fv.VisitAnnotation)
		acceptAnnotations(f.InvisibleAnnotations, false, fv.VisitAnnotation)
		fv.VisitEnd()
	}

	for i := range cf.Methods {
		m := &cf.Methods[i]
		mv := cv.VisitMethod(m.AccessFlags, m.Name, m.Descriptor, m.Signature, m.Exceptions)
		if mv == nil {
			continue
		}
		if m.AnnotationDefault != nil {
			if av := mv.VisitAnnotationDefault(); av != nil {
				acceptElement(av, "", *m.AnnotationDefault)
				av.VisitEnd()
			}
		}
		acceptAnnotations(m.Annotations, true, mv.VisitAnnotation)
		acceptAnnotations(m.InvisibleAnnotations, false, mv.VisitAnnotation)
		acceptParameterAnnotations(m.ParameterAnnotations, true, mv)
		acceptParameterAnnotations(m.InvisibleParameterAnnotations, false, mv)
		mv.VisitEnd()
	}

	acceptAnnotations(cf.Annotations, true, cv.VisitAnnotation)
	acceptAnnotations(cf.InvisibleAnnotations, false, cv.VisitAnnotation)

	return cv.VisitEnd()
}

func acceptAnnotations(anns []Annotation, visible bool, visit func(string, bool) AnnotationVisitor) {
	for i := range anns {
		if av := visit(anns[i].Type, visible); av != nil {
			acceptAnnotationBody(av, &anns[i])
		}
	}
}

func acceptParameterAnnotations(params [][]Annotation, visible bool, mv MethodVisitor) {
	for p, anns := range params {
		for i := range anns {
			if av := mv.VisitParameterAnnotation(p, anns[i].Type, visible); av != nil {
				acceptAnnotationBody(av, &anns[i])
			}
		}
	}
}

func acceptAnnotationBody(av AnnotationVisitor, ann *Annotation) {
	for _, pair := range ann.Elements {
		acceptElement(av, pair.Name, pair.Value)
	}
	av.VisitEnd()
}

func acceptElement(av AnnotationVisitor, name string, ev ElementValue) {
	switch ev.Tag {
	case 'e':
		av.VisitEnum(name, ev.EnumType, ev.EnumConst)
	case 'c':
		av.Visit(name, ClassType{Descriptor: ev.ClassDescriptor})
	case '@':
		if nested := av.VisitAnnotation(name, ev.Annotation.Type); nested != nil {
			acceptAnnotationBody(nested, ev.Annotation)
		}
	case '[':
		arr := av.VisitArray(name)
		if arr == nil {
			return
		}
		for _, elem := range ev.Array {
			acceptElement(arr, "", elem)
		}
		arr.VisitEnd()
	default:
		av.Visit(name, ev.Const)
	}
}
