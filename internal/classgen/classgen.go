// Package classgen assembles class files from a declarative description. It
// exists so decoder and cache tests can exercise real class-file bytes
// without a Java compiler.
package classgen

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Class describes one class file. Names are internal names
// ("com/example/Foo"); annotation types are descriptors ("Lcom/example/A;").
type Class struct {
	Name       string
	Super      string
	Interfaces []string
	Access     uint16
	Major      uint16

	Fields               []Field
	Methods              []Method
	Annotations          []Annotation
	InvisibleAnnotations []Annotation
}

type Field struct {
	Access      uint16
	Name        string
	Descriptor  string
	Constant    any
	Annotations []Annotation
}

type Method struct {
	Access               uint16
	Name                 string
	Descriptor           string
	Exceptions           []string
	Annotations          []Annotation
	ParameterAnnotations [][]Annotation
	// Default, when non-nil, is written as the AnnotationDefault attribute.
	Default any
}

type Annotation struct {
	Type     string
	Elements []Element
}

type Element struct {
	Name  string
	Value any
}

// Enum is an enum constant element value.
type Enum struct {
	Type  string
	Const string
}

// ClassLit is a class literal element value.
type ClassLit struct {
	Descriptor string
}

// Bytes encodes the class. It panics on values it cannot encode, which is a
// bug in the calling test.
func (c *Class) Bytes() []byte {
	w := &writer{pool: newPool()}
	return w.class(c)
}

type pool struct {
	entries bytes.Buffer
	index   map[string]uint16
	next    uint16
}

func newPool() *pool {
	return &pool{index: make(map[string]uint16), next: 1}
}

func (p *pool) add(key string, slots uint16, write func(b *bytes.Buffer)) uint16 {
	if idx, ok := p.index[key]; ok {
		return idx
	}
	idx := p.next
	write(&p.entries)
	p.index[key] = idx
	p.next += slots
	return idx
}

func (p *pool) utf8(s string) uint16 {
	return p.add("U"+s, 1, func(b *bytes.Buffer) {
		b.WriteByte(1)
		put(b, uint16(len(s)))
		b.WriteString(s)
	})
}

func (p *pool) class(name string) uint16 {
	nameIdx := p.utf8(name)
	return p.add("C"+name, 1, func(b *bytes.Buffer) {
		b.WriteByte(7)
		put(b, nameIdx)
	})
}

func (p *pool) integer(v int32) uint16 {
	return p.add(fmt.Sprintf("I%d", v), 1, func(b *bytes.Buffer) {
		b.WriteByte(3)
		put(b, v)
	})
}

func (p *pool) long(v int64) uint16 {
	return p.add(fmt.Sprintf("J%d", v), 2, func(b *bytes.Buffer) {
		b.WriteByte(5)
		put(b, v)
	})
}

func (p *pool) float(v float32) uint16 {
	return p.add(fmt.Sprintf("F%x", math.Float32bits(v)), 1, func(b *bytes.Buffer) {
		b.WriteByte(4)
		put(b, math.Float32bits(v))
	})
}

func (p *pool) double(v float64) uint16 {
	return p.add(fmt.Sprintf("D%x", math.Float64bits(v)), 2, func(b *bytes.Buffer) {
		b.WriteByte(6)
		put(b, math.Float64bits(v))
	})
}

func (p *pool) str(s string) uint16 {
	utf := p.utf8(s)
	return p.add("S"+s, 1, func(b *bytes.Buffer) {
		b.WriteByte(8)
		put(b, utf)
	})
}

func put(b *bytes.Buffer, v any) {
	if err := binary.Write(b, binary.BigEndian, v); err != nil {
		panic(err)
	}
}

type attribute struct {
	name string
	data []byte
}

type writer struct {
	pool *pool
}

func (w *writer) class(c *Class) []byte {
	var body bytes.Buffer
	put(&body, c.Access)
	put(&body, w.pool.class(c.Name))
	if c.Super == "" {
		put(&body, uint16(0))
	} else {
		put(&body, w.pool.class(c.Super))
	}
	put(&body, uint16(len(c.Interfaces)))
	for _, iface := range c.Interfaces {
		put(&body, w.pool.class(iface))
	}

	put(&body, uint16(len(c.Fields)))
	for _, f := range c.Fields {
		var attrs []attribute
		if f.Constant != nil {
			attrs = append(attrs, attribute{"ConstantValue", w.u2(w.constant(f.Constant))})
		}
		if len(f.Annotations) > 0 {
			attrs = append(attrs, attribute{"RuntimeVisibleAnnotations", w.annotations(f.Annotations)})
		}
		w.member(&body, f.Access, f.Name, f.Descriptor, attrs)
	}

	put(&body, uint16(len(c.Methods)))
	for _, m := range c.Methods {
		var attrs []attribute
		if len(m.Exceptions) > 0 {
			var b bytes.Buffer
			put(&b, uint16(len(m.Exceptions)))
			for _, e := range m.Exceptions {
				put(&b, w.pool.class(e))
			}
			attrs = append(attrs, attribute{"Exceptions", b.Bytes()})
		}
		if len(m.Annotations) > 0 {
			attrs = append(attrs, attribute{"RuntimeVisibleAnnotations", w.annotations(m.Annotations)})
		}
		if len(m.ParameterAnnotations) > 0 {
			var b bytes.Buffer
			b.WriteByte(byte(len(m.ParameterAnnotations)))
			for _, anns := range m.ParameterAnnotations {
				b.Write(w.annotations(anns))
			}
			attrs = append(attrs, attribute{"RuntimeVisibleParameterAnnotations", b.Bytes()})
		}
		if m.Default != nil {
			var b bytes.Buffer
			w.elementValue(&b, m.Default)
			attrs = append(attrs, attribute{"AnnotationDefault", b.Bytes()})
		}
		w.member(&body, m.Access, m.Name, m.Descriptor, attrs)
	}

	var classAttrs []attribute
	if len(c.Annotations) > 0 {
		classAttrs = append(classAttrs, attribute{"RuntimeVisibleAnnotations", w.annotations(c.Annotations)})
	}
	if len(c.InvisibleAnnotations) > 0 {
		classAttrs = append(classAttrs, attribute{"RuntimeInvisibleAnnotations", w.annotations(c.InvisibleAnnotations)})
	}
	w.attributes(&body, classAttrs)

	major := c.Major
	if major == 0 {
		major = 52
	}
	var out bytes.Buffer
	put(&out, uint32(0xCAFEBABE))
	put(&out, uint16(0))
	put(&out, major)
	put(&out, w.pool.next)
	out.Write(w.pool.entries.Bytes())
	out.Write(body.Bytes())
	return out.Bytes()
}

func (w *writer) member(b *bytes.Buffer, access uint16, name, desc string, attrs []attribute) {
	put(b, access)
	put(b, w.pool.utf8(name))
	put(b, w.pool.utf8(desc))
	w.attributes(b, attrs)
}

func (w *writer) attributes(b *bytes.Buffer, attrs []attribute) {
	put(b, uint16(len(attrs)))
	for _, a := range attrs {
		put(b, w.pool.utf8(a.name))
		put(b, uint32(len(a.data)))
		b.Write(a.data)
	}
}

func (w *writer) u2(v uint16) []byte {
	var b bytes.Buffer
	put(&b, v)
	return b.Bytes()
}

func (w *writer) constant(v any) uint16 {
	switch v := v.(type) {
	case int:
		return w.pool.integer(int32(v))
	case int32:
		return w.pool.integer(v)
	case int64:
		return w.pool.long(v)
	case float32:
		return w.pool.float(v)
	case float64:
		return w.pool.double(v)
	case string:
		return w.pool.str(v)
	default:
		panic(fmt.Sprintf("classgen: unsupported constant %T", v))
	}
}

func (w *writer) annotations(anns []Annotation) []byte {
	var b bytes.Buffer
	put(&b, uint16(len(anns)))
	for _, a := range anns {
		w.annotation(&b, a)
	}
	return b.Bytes()
}

func (w *writer) annotation(b *bytes.Buffer, a Annotation) {
	put(b, w.pool.utf8(a.Type))
	put(b, uint16(len(a.Elements)))
	for _, e := range a.Elements {
		put(b, w.pool.utf8(e.Name))
		w.elementValue(b, e.Value)
	}
}

func (w *writer) elementValue(b *bytes.Buffer, v any) {
	switch v := v.(type) {
	case bool:
		b.WriteByte('Z')
		i := int32(0)
		if v {
			i = 1
		}
		put(b, w.pool.integer(i))
	case int8:
		b.WriteByte('B')
		put(b, w.pool.integer(int32(v)))
	case uint16:
		b.WriteByte('C')
		put(b, w.pool.integer(int32(v)))
	case int16:
		b.WriteByte('S')
		put(b, w.pool.integer(int32(v)))
	case int:
		b.WriteByte('I')
		put(b, w.pool.integer(int32(v)))
	case int32:
		b.WriteByte('I')
		put(b, w.pool.integer(v))
	case int64:
		b.WriteByte('J')
		put(b, w.pool.long(v))
	case float32:
		b.WriteByte('F')
		put(b, w.pool.float(v))
	case float64:
		b.WriteByte('D')
		put(b, w.pool.double(v))
	case string:
		b.WriteByte('s')
		put(b, w.pool.utf8(v))
	case Enum:
		b.WriteByte('e')
		put(b, w.pool.utf8(v.Type))
		put(b, w.pool.utf8(v.Const))
	case ClassLit:
		b.WriteByte('c')
		put(b, w.pool.utf8(v.Descriptor))
	case Annotation:
		b.WriteByte('@')
		w.annotation(b, v)
	case []any:
		b.WriteByte('[')
		put(b, uint16(len(v)))
		for _, elem := range v {
			w.elementValue(b, elem)
		}
	default:
		panic(fmt.Sprintf("classgen: unsupported element value %T", v))
	}
}
