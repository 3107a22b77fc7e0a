// Package intern provides string pools that keep one canonical instance of
// each distinct string. Class names, descriptors, and member names repeat
// constantly across a classpath; storing them once bounds memory use and lets
// callers compare interned values by identity.
//
// Interners are not safe for concurrent use. Each scanning session owns its
// own set of tables.
package intern

import "fmt"

// Category partitions interned strings by meaning so that unrelated values
// never share a pool.
type Category uint8

const (
	ClassName Category = iota
	PackageName
	FieldName
	MethodName
	Description
)

func (c Category) String() string {
	switch c {
	case ClassName:
		return "class-name"
	case PackageName:
		return "package-name"
	case FieldName:
		return "field-name"
	case MethodName:
		return "method-name"
	case Description:
		return "description"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// Interner maps each distinct string to its canonical instance.
type Interner struct {
	category Category
	pool     map[string]string
	lookups  int
}

// New creates an interner for the given category with an initial capacity.
func New(category Category, capacity int) *Interner {
	return &Interner{
		category: category,
		pool:     make(map[string]string, capacity),
	}
}

// Category returns the category this interner was created for.
func (i *Interner) Category() Category {
	return i.category
}

// Intern returns the canonical instance of s, adding s if it is new.
// The empty string is returned as is.
func (i *Interner) Intern(s string) string {
	if s == "" {
		return ""
	}
	i.lookups++
	if interned, ok := i.pool[s]; ok {
		return interned
	}
	i.pool[s] = s
	return s
}

// InternBytes interns the string form of b.
func (i *Interner) InternBytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	i.lookups++
	// The conversion in the index expression does not allocate.
	if interned, ok := i.pool[string(b)]; ok {
		return interned
	}
	s := string(b)
	i.pool[s] = s
	return s
}

// Lookup returns the canonical instance of s without adding it.
func (i *Interner) Lookup(s string) (string, bool) {
	interned, ok := i.pool[s]
	return interned, ok
}

// Size returns the number of distinct strings held.
func (i *Interner) Size() int {
	return len(i.pool)
}

// Lookups returns the number of Intern calls made so far.
func (i *Interner) Lookups() int {
	return i.lookups
}
