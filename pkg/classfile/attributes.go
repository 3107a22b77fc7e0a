package classfile

import (
	"encoding/binary"
	"fmt"
)

// attrReader walks the payload of one attribute.
type attrReader struct {
	data   []byte
	offset int
}

func (ar *attrReader) u1() (uint8, error) {
	if ar.offset+1 > len(ar.data) {
		return 0, fmt.Errorf("attribute truncated at offset %d", ar.offset)
	}
	v := ar.data[ar.offset]
	ar.offset++
	return v, nil
}

func (ar *attrReader) u2() (uint16, error) {
	if ar.offset+2 > len(ar.data) {
		return 0, fmt.Errorf("attribute truncated at offset %d", ar.offset)
	}
	v := binary.BigEndian.Uint16(ar.data[ar.offset : ar.offset+2])
	ar.offset += 2
	return v, nil
}

func (ar *attrReader) utf8(pool []ConstantPoolEntry) (string, error) {
	idx, err := ar.u2()
	if err != nil {
		return "", err
	}
	return GetUtf8(pool, idx)
}

func (cf *ClassFile) decodeClassAttributes() error {
	for _, attr := range cf.Attributes {
		var err error
		switch attr.Name {
		case attrSignature:
			cf.Signature, err = decodeSignature(cf.ConstantPool, attr.Data)
		case attrRuntimeVisibleAnnotations:
			cf.Annotations, err = decodeAnnotations(cf.ConstantPool, attr.Data)
		case attrRuntimeInvisibleAnnotations:
			cf.InvisibleAnnotations, err = decodeAnnotations(cf.ConstantPool, attr.Data)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", attr.Name, err)
		}
	}
	return nil
}

func (f *FieldInfo) decodeAttributes(pool []ConstantPoolEntry) error {
	for _, attr := range f.Attributes {
		var err error
		switch attr.Name {
		case attrSignature:
			f.Signature, err = decodeSignature(pool, attr.Data)
		case attrConstantValue:
			ar := &attrReader{data: attr.Data}
			var idx uint16
			if idx, err = ar.u2(); err == nil {
				f.ConstantValue, err = constantValue(pool, idx)
			}
		case attrRuntimeVisibleAnnotations:
			f.Annotations, err = decodeAnnotations(pool, attr.Data)
		case attrRuntimeInvisibleAnnotations:
			f.InvisibleAnnotations, err = decodeAnnotations(pool, attr.Data)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", attr.Name, err)
		}
	}
	return nil
}

func (m *MethodInfo) decodeAttributes(pool []ConstantPoolEntry) error {
	for _, attr := range m.Attributes {
		var err error
		switch attr.Name {
		case attrSignature:
			m.Signature, err = decodeSignature(pool, attr.Data)
		case attrExceptions:
			m.Exceptions, err = decodeExceptions(pool, attr.Data)
		case attrRuntimeVisibleAnnotations:
			m.Annotations, err = decodeAnnotations(pool, attr.Data)
		case attrRuntimeInvisibleAnnotations:
			m.InvisibleAnnotations, err = decodeAnnotations(pool, attr.Data)
		case attrRuntimeVisibleParameterAnnotations:
			m.ParameterAnnotations, err = decodeParameterAnnotations(pool, attr.Data)
		case attrRuntimeInvisibleParameterAnnotations:
			m.InvisibleParameterAnnotations, err = decodeParameterAnnotations(pool, attr.Data)
		case attrAnnotationDefault:
			ar := &attrReader{data: attr.Data}
			var ev ElementValue
			if ev, err = decodeElementValue(ar, pool); err == nil {
				m.AnnotationDefault = &ev
			}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", attr.Name, err)
		}
	}
	return nil
}

func decodeSignature(pool []ConstantPoolEntry, data []byte) (string, error) {
	ar := &attrReader{data: data}
	return ar.utf8(pool)
}

func decodeExceptions(pool []ConstantPoolEntry, data []byte) ([]string, error) {
	ar := &attrReader{data: data}
	count, err := ar.u2()
	if err != nil {
		return nil, err
	}
	names := make([]string, count)
	for i := range names {
		idx, err := ar.u2()
		if err != nil {
			return nil, err
		}
		if names[i], err = GetClassName(pool, idx); err != nil {
			return nil, fmt.Errorf("exception %d: %w", i, err)
		}
	}
	return names, nil
}

func decodeAnnotations(pool []ConstantPoolEntry, data []byte) ([]Annotation, error) {
	ar := &attrReader{data: data}
	return decodeAnnotationList(ar, pool)
}

func decodeAnnotationList(ar *attrReader, pool []ConstantPoolEntry) ([]Annotation, error) {
	count, err := ar.u2()
	if err != nil {
		return nil, err
	}
	anns := make([]Annotation, count)
	for i := range anns {
		if anns[i], err = decodeAnnotation(ar, pool); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
	}
	return anns, nil
}

func decodeParameterAnnotations(pool []ConstantPoolEntry, data []byte) ([][]Annotation, error) {
	ar := &attrReader{data: data}
	numParams, err := ar.u1()
	if err != nil {
		return nil, err
	}
	params := make([][]Annotation, numParams)
	for i := range params {
		if params[i], err = decodeAnnotationList(ar, pool); err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
	}
	return params, nil
}

func decodeAnnotation(ar *attrReader, pool []ConstantPoolEntry) (Annotation, error) {
	typ, err := ar.utf8(pool)
	if err != nil {
		return Annotation{}, fmt.Errorf("type: %w", err)
	}
	numPairs, err := ar.u2()
	if err != nil {
		return Annotation{}, err
	}
	ann := Annotation{Type: typ, Elements: make([]ElementPair, numPairs)}
	for i := range ann.Elements {
		name, err := ar.utf8(pool)
		if err != nil {
			return Annotation{}, fmt.Errorf("element %d name: %w", i, err)
		}
		value, err := decodeElementValue(ar, pool)
		if err != nil {
			return Annotation{}, fmt.Errorf("element %s: %w", name, err)
		}
		ann.Elements[i] = ElementPair{Name: name, Value: value}
	}
	return ann, nil
}

func decodeElementValue(ar *attrReader, pool []ConstantPoolEntry) (ElementValue, error) {
	tag, err := ar.u1()
	if err != nil {
		return ElementValue{}, err
	}
	ev := ElementValue{Tag: tag}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		idx, err := ar.u2()
		if err != nil {
			return ElementValue{}, err
		}
		if ev.Const, err = primitiveElement(pool, tag, idx); err != nil {
			return ElementValue{}, err
		}
	case 's':
		if ev.Const, err = ar.utf8(pool); err != nil {
			return ElementValue{}, err
		}
	case 'e':
		if ev.EnumType, err = ar.utf8(pool); err != nil {
			return ElementValue{}, err
		}
		if ev.EnumConst, err = ar.utf8(pool); err != nil {
			return ElementValue{}, err
		}
	case 'c':
		if ev.ClassDescriptor, err = ar.utf8(pool); err != nil {
			return ElementValue{}, err
		}
	case '@':
		nested, err := decodeAnnotation(ar, pool)
		if err != nil {
			return ElementValue{}, err
		}
		ev.Annotation = &nested
	case '[':
		count, err := ar.u2()
		if err != nil {
			return ElementValue{}, err
		}
		ev.Array = make([]ElementValue, count)
		for i := range ev.Array {
			if ev.Array[i], err = decodeElementValue(ar, pool); err != nil {
				return ElementValue{}, fmt.Errorf("array element %d: %w", i, err)
			}
		}
	default:
		return ElementValue{}, fmt.Errorf("unknown element value tag %q", tag)
	}
	return ev, nil
}

// primitiveElement narrows the constant pool entry to the Go type matching
// the element tag.
func primitiveElement(pool []ConstantPoolEntry, tag byte, idx uint16) (any, error) {
	v, err := constantValue(pool, idx)
	if err != nil {
		return nil, err
	}
	switch tag {
	case 'J', 'F', 'D':
		return v, nil
	}
	i, ok := v.(int32)
	if !ok {
		return nil, fmt.Errorf("element tag %q expects an Integer constant, got %T", tag, v)
	}
	switch tag {
	case 'B':
		return int8(i), nil
	case 'C':
		return uint16(i), nil
	case 'S':
		return int16(i), nil
	case 'Z':
		return i != 0, nil
	default:
		return i, nil
	}
}
