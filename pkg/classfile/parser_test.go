package classfile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/classinfo/internal/classgen"
)

func findMethod(cf *ClassFile, name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name && cf.Methods[i].Descriptor == descriptor {
			return &cf.Methods[i]
		}
	}
	return nil
}

func findField(cf *ClassFile, name string) *FieldInfo {
	for i := range cf.Fields {
		if cf.Fields[i].Name == name {
			return &cf.Fields[i]
		}
	}
	return nil
}

func helloClass() *classgen.Class {
	return &classgen.Class{
		Name:       "com/example/Hello",
		Super:      "java/lang/Object",
		Interfaces: []string{"java/io/Serializable", "com/example/Greeter"},
		Access:     AccPublic | AccSuper,
		Fields: []classgen.Field{
			{Access: AccPrivate, Name: "count", Descriptor: "I"},
			{
				Access: AccPublic | AccStatic | AccFinal, Name: "GREETING", Descriptor: "Ljava/lang/String;",
				Constant: "hello",
			},
			{Access: AccStatic | AccFinal, Name: "BIG", Descriptor: "J", Constant: int64(1) << 40},
		},
		Methods: []classgen.Method{
			{Access: AccPublic, Name: "<init>", Descriptor: "()V"},
			{
				Access: AccPublic, Name: "greet", Descriptor: "(Ljava/lang/String;I)Ljava/lang/String;",
				Exceptions: []string{"java/io/IOException"},
				Annotations: []classgen.Annotation{{Type: "Ljava/lang/Deprecated;"}},
				ParameterAnnotations: [][]classgen.Annotation{
					{{Type: "Ljavax/annotation/Nonnull;"}},
					nil,
				},
			},
		},
		Annotations: []classgen.Annotation{{
			Type: "Lcom/example/Marker;",
			Elements: []classgen.Element{
				{Name: "value", Value: "x"},
				{Name: "level", Value: classgen.Enum{Type: "Lcom/example/Level;", Const: "HIGH"}},
				{Name: "types", Value: []any{classgen.ClassLit{Descriptor: "Ljava/lang/String;"}, classgen.ClassLit{Descriptor: "I"}}},
				{Name: "nested", Value: classgen.Annotation{Type: "Lcom/example/Inner;", Elements: []classgen.Element{{Name: "n", Value: 7}}}},
				{Name: "flag", Value: true},
				{Name: "ratio", Value: 0.5},
			},
		}},
		InvisibleAnnotations: []classgen.Annotation{{Type: "Lcom/example/Build;"}},
	}
}

func TestParseClassFile(t *testing.T) {
	cf, err := Parse(bytes.NewReader(helloClass().Bytes()))
	require.NoError(t, err)

	assert.Equal(t, uint16(52), cf.MajorVersion)

	name, err := cf.ClassName()
	require.NoError(t, err)
	assert.Equal(t, "com/example/Hello", name)
	assert.Equal(t, "java/lang/Object", cf.SuperClassName())

	ifaces, err := cf.InterfaceNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"java/io/Serializable", "com/example/Greeter"}, ifaces)

	t.Run("fields", func(t *testing.T) {
		require.Len(t, cf.Fields, 3)
		assert.Nil(t, findField(cf, "count").ConstantValue)
		assert.Equal(t, "hello", findField(cf, "GREETING").ConstantValue)
		assert.Equal(t, int64(1)<<40, findField(cf, "BIG").ConstantValue)
		assert.Nil(t, findField(cf, "missing"))
	})

	t.Run("methods", func(t *testing.T) {
		greet := findMethod(cf, "greet", "(Ljava/lang/String;I)Ljava/lang/String;")
		require.NotNil(t, greet)
		assert.Equal(t, []string{"java/io/IOException"}, greet.Exceptions)
		require.Len(t, greet.Annotations, 1)
		assert.Equal(t, "Ljava/lang/Deprecated;", greet.Annotations[0].Type)
		require.Len(t, greet.ParameterAnnotations, 2)
		assert.Equal(t, "Ljavax/annotation/Nonnull;", greet.ParameterAnnotations[0][0].Type)
		assert.Empty(t, greet.ParameterAnnotations[1])
		assert.Nil(t, findMethod(cf, "greet", "()V"))
	})

	t.Run("class annotations", func(t *testing.T) {
		require.Len(t, cf.Annotations, 1)
		ann := cf.Annotations[0]
		assert.Equal(t, "Lcom/example/Marker;", ann.Type)
		require.Len(t, ann.Elements, 6)

		assert.Equal(t, byte('s'), ann.Elements[0].Value.Tag)
		assert.Equal(t, "x", ann.Elements[0].Value.Const)

		assert.Equal(t, "Lcom/example/Level;", ann.Elements[1].Value.EnumType)
		assert.Equal(t, "HIGH", ann.Elements[1].Value.EnumConst)

		arr := ann.Elements[2].Value.Array
		require.Len(t, arr, 2)
		assert.Equal(t, "Ljava/lang/String;", arr[0].ClassDescriptor)
		assert.Equal(t, "I", arr[1].ClassDescriptor)

		nested := ann.Elements[3].Value.Annotation
		require.NotNil(t, nested)
		assert.Equal(t, "Lcom/example/Inner;", nested.Type)
		assert.Equal(t, int32(7), nested.Elements[0].Value.Const)

		assert.Equal(t, true, ann.Elements[4].Value.Const)
		assert.Equal(t, 0.5, ann.Elements[5].Value.Const)

		require.Len(t, cf.InvisibleAnnotations, 1)
		assert.Equal(t, "Lcom/example/Build;", cf.InvisibleAnnotations[0].Type)
	})
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Hello.class")
	require.NoError(t, os.WriteFile(path, helloClass().Bytes(), 0o644))

	cf, err := ParseFile(path)
	require.NoError(t, err)
	name, err := cf.ClassName()
	require.NoError(t, err)
	assert.Equal(t, "com/example/Hello", name)

	_, err = ParseFile(filepath.Join(t.TempDir(), "Missing.class"))
	assert.Error(t, err)
}

func TestParseAnnotationDefault(t *testing.T) {
	c := &classgen.Class{
		Name:       "com/example/Level",
		Super:      "java/lang/Object",
		Interfaces: []string{"java/lang/annotation/Annotation"},
		Access:     AccPublic | AccInterface | AccAbstract | AccAnnotation,
		Methods: []classgen.Method{
			{Access: AccPublic | AccAbstract, Name: "value", Descriptor: "()I", Default: 3},
			{Access: AccPublic | AccAbstract, Name: "names", Descriptor: "()[Ljava/lang/String;", Default: []any{"a", "b"}},
			{Access: AccPublic | AccAbstract, Name: "required", Descriptor: "()Z"},
		},
	}
	cf, err := Parse(bytes.NewReader(c.Bytes()))
	require.NoError(t, err)

	value := findMethod(cf, "value", "()I")
	require.NotNil(t, value.AnnotationDefault)
	assert.Equal(t, int32(3), value.AnnotationDefault.Const)

	names := findMethod(cf, "names", "()[Ljava/lang/String;")
	require.NotNil(t, names.AnnotationDefault)
	require.Len(t, names.AnnotationDefault.Array, 2)
	assert.Equal(t, "b", names.AnnotationDefault.Array[1].Const)

	assert.Nil(t, findMethod(cf, "required", "()Z").AnnotationDefault)
}

func TestParseInvalidMagic(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid magic number")
}

func TestParseTruncated(t *testing.T) {
	data := helloClass().Bytes()
	for _, n := range []int{2, 9, len(data) / 2, len(data) - 1} {
		_, err := Parse(bytes.NewReader(data[:n]))
		assert.Error(t, err, "truncated at %d", n)
	}
}

func TestParseOversizedAttributeLength(t *testing.T) {
	data := (&classgen.Class{Name: "com/example/Empty", Super: "java/lang/Object", Access: AccPublic}).Bytes()
	// Replace the empty class attribute table with one attribute claiming
	// 4 GiB of payload.
	require.Equal(t, []byte{0, 0}, data[len(data)-2:])
	data = append(data[:len(data)-2], 0, 1, 0, 1, 0xFF, 0xFF, 0xFF, 0xFF, 1, 2, 3)

	_, err := Parse(bytes.NewReader(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "3 of 4294967295 bytes")
}
