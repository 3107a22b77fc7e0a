package classfile

import (
	"fmt"
	"strings"
)

var primitiveDescriptors = map[byte]string{
	'Z': "boolean",
	'B': "byte",
	'C': "char",
	'S': "short",
	'I': "int",
	'J': "long",
	'F': "float",
	'D': "double",
	'V': "void",
}

// InternalToBinary converts "java/lang/String" to "java.lang.String".
func InternalToBinary(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

// BinaryToInternal converts "java.lang.String" to "java/lang/String".
func BinaryToInternal(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// DescriptorClassName converts a field descriptor to a binary class name:
// "Ljava/lang/String;" -> "java.lang.String", "I" -> "int",
// "[[J" -> "long[][]".
func DescriptorClassName(desc string) (string, error) {
	name, rest, err := nextType(desc)
	if err != nil {
		return "", err
	}
	if rest != "" {
		return "", fmt.Errorf("trailing characters in descriptor %q", desc)
	}
	return name, nil
}

// ParseMethodDescriptor splits "(ILjava/lang/String;)V" into parameter type
// names ["int", "java.lang.String"] and the return type name "void".
func ParseMethodDescriptor(desc string) (params []string, ret string, err error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, "", fmt.Errorf("method descriptor %q does not start with '('", desc)
	}
	rest := desc[1:]
	for {
		if rest == "" {
			return nil, "", fmt.Errorf("unterminated parameter list in %q", desc)
		}
		if rest[0] == ')' {
			rest = rest[1:]
			break
		}
		var name string
		if name, rest, err = nextType(rest); err != nil {
			return nil, "", fmt.Errorf("method descriptor %q: %w", desc, err)
		}
		params = append(params, name)
	}
	if ret, err = DescriptorClassName(rest); err != nil {
		return nil, "", fmt.Errorf("method descriptor %q: %w", desc, err)
	}
	return params, ret, nil
}

func nextType(desc string) (name, rest string, err error) {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	if dims == len(desc) {
		return "", "", fmt.Errorf("truncated descriptor %q", desc)
	}
	c := desc[dims]
	switch {
	case c == 'L':
		end := strings.IndexByte(desc[dims:], ';')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated class descriptor %q", desc)
		}
		name = InternalToBinary(desc[dims+1 : dims+end])
		rest = desc[dims+end+1:]
	case primitiveDescriptors[c] != "":
		if c == 'V' && dims > 0 {
			return "", "", fmt.Errorf("array of void in %q", desc)
		}
		name = primitiveDescriptors[c]
		rest = desc[dims+1:]
	default:
		return "", "", fmt.Errorf("invalid descriptor character %q in %q", c, desc)
	}
	return name + strings.Repeat("[]", dims), rest, nil
}
