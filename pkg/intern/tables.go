package intern

// Initial pool sizes, tuned for classpaths of a few thousand classes.
const (
	classNameCapacity   = 4096
	packageNameCapacity = 256
	fieldNameCapacity   = 2048
	methodNameCapacity  = 4096
	descriptionCapacity = 4096
)

// Tables bundles one interner per Category.
type Tables struct {
	classNames   *Interner
	packageNames *Interner
	fieldNames   *Interner
	methodNames  *Interner
	descriptions *Interner
}

// NewTables creates the five category tables.
func NewTables() *Tables {
	return &Tables{
		classNames:   New(ClassName, classNameCapacity),
		packageNames: New(PackageName, packageNameCapacity),
		fieldNames:   New(FieldName, fieldNameCapacity),
		methodNames:  New(MethodName, methodNameCapacity),
		descriptions: New(Description, descriptionCapacity),
	}
}

func (t *Tables) ClassNames() *Interner   { return t.classNames }
func (t *Tables) PackageNames() *Interner { return t.packageNames }
func (t *Tables) FieldNames() *Interner   { return t.fieldNames }
func (t *Tables) MethodNames() *Interner  { return t.methodNames }
func (t *Tables) Descriptions() *Interner { return t.descriptions }

// Table returns the interner for a category.
func (t *Tables) Table(c Category) *Interner {
	switch c {
	case ClassName:
		return t.classNames
	case PackageName:
		return t.packageNames
	case FieldName:
		return t.fieldNames
	case MethodName:
		return t.methodNames
	default:
		return t.descriptions
	}
}

// Stat describes one table.
type Stat struct {
	Category Category
	Size     int
	Lookups  int
}

// Stats reports size and lookup counts for every table, in Category order.
func (t *Tables) Stats() []Stat {
	all := []*Interner{t.classNames, t.packageNames, t.fieldNames, t.methodNames, t.descriptions}
	stats := make([]Stat, 0, len(all))
	for _, in := range all {
		stats = append(stats, Stat{Category: in.category, Size: in.Size(), Lookups: in.Lookups()})
	}
	return stats
}
