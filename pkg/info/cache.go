package info

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"

	"github.com/daimatz/classinfo/pkg/classfile"
	"github.com/daimatz/classinfo/pkg/intern"
)

// Scanner loads the bytecode for a class and drives a ClassVisitor over it,
// which registers the result with the cache. A missing resource is reported
// with an error matching fs.ErrNotExist.
type Scanner interface {
	ScanClass(name string) error
}

// Table identifies where the cache holds a record.
type Table uint8

const (
	TableNone Table = iota
	TablePrimitive
	// TableJava retains classes of reserved namespaces for the cache's life.
	TableJava
	// TableAnnotated retains classes that carry annotations.
	TableAnnotated
	// TableFailed retains stand-ins for classes whose bytecode failed to
	// load, so they are never scanned again.
	TableFailed
	// TableEvictable is the capacity-bounded LRU table.
	TableEvictable
	// TablePlaceholder holds name-only placeholders.
	TablePlaceholder
)

func (t Table) String() string {
	switch t {
	case TablePrimitive:
		return "primitive"
	case TableJava:
		return "java"
	case TableAnnotated:
		return "annotated"
	case TableFailed:
		return "failed"
	case TableEvictable:
		return "evictable"
	case TablePlaceholder:
		return "placeholder"
	default:
		return "none"
	}
}

// Stats summarizes cache contents and activity.
type Stats struct {
	Capacity          int
	JavaClasses       int
	AnnotatedClasses  int
	FailedClasses     int
	EvictableClasses  int
	Placeholders      int
	Packages          int
	Evictions         int
	ScansRequested    int
	ScanFailures      int
	ArtificialClasses int
	Interns           []intern.Stat
}

// Cache owns every class and package record of one scanning session.
// Ordinary classes of reserved namespaces are retained, as are annotated
// classes and stand-ins for failed loads. All other ordinary classes live
// in an LRU table bounded by the capacity.
// Placeholders and packages are never evicted.
//
// A Cache is not safe for concurrent use. Scan independent classpaths with
// independent caches.
type Cache struct {
	logger  *zap.Logger
	scanner Scanner
	interns *intern.Tables

	capacity     int
	primitives   map[string]*ClassInfo
	javaClasses  map[string]*ClassInfo
	annotated    map[string]*ClassInfo
	failed       map[string]*ClassInfo
	classes      *simplelru.LRU[string, *ClassInfo]
	placeholders map[string]*ClassInfo
	packages     map[string]*PackageInfo

	// relocating is being moved out of the LRU table and must keep its link.
	relocating *ClassInfo

	evictions    int
	scans        int
	scanFailures int
	artificials  int
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithScanner sets the scanner used on a cache miss. Without one,
// ResolveConcrete only answers from what was registered, and placeholders
// of unregistered classes resolve to unregistered artificial records, so a
// later Register still supplies the class.
func WithScanner(scanner Scanner) Option {
	return func(c *Cache) { c.scanner = scanner }
}

// WithInternTables shares existing intern tables with the cache.
func WithInternTables(tables *intern.Tables) Option {
	return func(c *Cache) { c.interns = tables }
}

// NewCache creates a cache holding at most capacity evictable classes.
func NewCache(capacity int, opts ...Option) (*Cache, error) {
	if capacity < 1 {
		return nil, invalidCapacityError(capacity)
	}
	c := &Cache{
		logger:       zap.NewNop(),
		capacity:     capacity,
		primitives:   make(map[string]*ClassInfo, len(primitiveNames)),
		javaClasses:  make(map[string]*ClassInfo),
		annotated:    make(map[string]*ClassInfo),
		failed:       make(map[string]*ClassInfo),
		placeholders: make(map[string]*ClassInfo),
		packages:     make(map[string]*PackageInfo),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.interns == nil {
		c.interns = intern.NewTables()
	}
	classes, err := simplelru.NewLRU[string, *ClassInfo](capacity, c.onEvict)
	if err != nil {
		return nil, err
	}
	c.classes = classes
	for _, name := range primitiveNames {
		name = c.interns.ClassNames().Intern(name)
		c.primitives[name] = &ClassInfo{kind: KindPrimitive, name: name, cache: c}
	}
	return c, nil
}

// Capacity returns the maximum number of evictable classes.
func (c *Cache) Capacity() int { return c.capacity }

// InternTables returns the intern tables used for every name in the cache.
func (c *Cache) InternTables() *intern.Tables { return c.interns }

// Resolve returns the record for name without scanning: a primitive, an
// array, a cached ordinary class, or a placeholder created on first use.
func (c *Cache) Resolve(name string) *ClassInfo {
	return c.resolve(name, true)
}

// ResolveNonPrimitive is Resolve for positions where a primitive cannot
// occur, such as superclasses; a primitive name yields a placeholder.
func (c *Cache) ResolveNonPrimitive(name string) *ClassInfo {
	return c.resolve(name, false)
}

// ResolveDescriptor resolves a field descriptor such as "Ljava/lang/String;".
func (c *Cache) ResolveDescriptor(descriptor string) (*ClassInfo, error) {
	name, err := classfile.DescriptorClassName(descriptor)
	if err != nil {
		return nil, err
	}
	return c.Resolve(name), nil
}

func (c *Cache) resolve(name string, allowPrimitive bool) *ClassInfo {
	name = normalizeName(name)
	if allowPrimitive {
		if p, ok := c.primitives[name]; ok {
			return p
		}
	}
	if strings.HasSuffix(name, "[]") {
		return c.newArray(name)
	}
	if ci := c.lookupConcrete(name); ci != nil {
		return ci
	}
	if ph, ok := c.placeholders[name]; ok {
		return ph
	}

	name = c.interns.ClassNames().Intern(name)
	ph := &ClassInfo{kind: KindPlaceholder, name: name, cache: c, placeholder: &placeholderClass{}}
	c.placeholders[name] = ph
	return ph
}

func (c *Cache) resolveAll(names []string) []*ClassInfo {
	if len(names) == 0 {
		return nil
	}
	out := make([]*ClassInfo, len(names))
	for i, name := range names {
		out[i] = c.Resolve(name)
	}
	return out
}

// lookupConcrete checks the java, annotated, failed and evictable tables without
// promoting anything in LRU order.
func (c *Cache) lookupConcrete(name string) *ClassInfo {
	if ci, ok := c.javaClasses[name]; ok {
		return ci
	}
	if ci, ok := c.annotated[name]; ok {
		return ci
	}
	if ci, ok := c.failed[name]; ok {
		return ci
	}
	if ci, ok := c.classes.Peek(name); ok {
		return ci
	}
	return nil
}

// ResolveConcrete returns a primitive, array or ordinary record for name,
// scanning the class when no table holds it. It returns nil when the class
// resource does not exist or when the scanner cannot serve any class, such
// as a store that is not open; nothing is registered in either case. A
// class whose resource exists but fails to load resolves to an artificial
// record that is retained and never rescanned.
func (c *Cache) ResolveConcrete(name string) *ClassInfo {
	ci, _ := c.resolveConcrete(name)
	return ci
}

// resolveConcrete is ResolveConcrete that also returns
// ErrScannerUnavailable when no scan could be made.
func (c *Cache) resolveConcrete(name string) (*ClassInfo, error) {
	name = normalizeName(name)
	if p, ok := c.primitives[name]; ok {
		return p, nil
	}
	if strings.HasSuffix(name, "[]") {
		return c.newArray(name), nil
	}
	if ci := c.lookupConcrete(name); ci != nil {
		return ci, nil
	}
	if c.scanner == nil {
		return nil, ErrScannerUnavailable
	}

	c.scans++
	err := c.scanner.ScanClass(name)
	if ci := c.lookupConcrete(name); ci != nil {
		return ci, nil
	}
	if err == nil {
		// The resource held something else, such as a package-info.
		return nil, nil
	}
	if errors.Is(err, ErrScannerUnavailable) {
		c.logger.Warn("class scanner unavailable", zap.String("class", name), zap.Error(err))
		return nil, err
	}
	c.scanFailures++
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Debug("class not found", zap.String("class", name))
		return nil, nil
	}
	c.logger.Warn("class load failed", zap.String("class", name), zap.Error(err))
	return c.artificial(name, true), nil
}

// resolvePlaceholder returns the ordinary target of ph, resolving and
// linking it when needed. A class that cannot be found resolves to an
// artificial record so that callers walking the hierarchy always terminate.
// When the scanner is unavailable the artificial record is neither
// registered nor linked.
func (c *Cache) resolvePlaceholder(ph *ClassInfo) *ClassInfo {
	if target := ph.placeholder.target; target != nil {
		c.RecordAccess(target)
		return target
	}
	target, err := c.resolveConcrete(ph.name)
	if err != nil {
		return c.newArtificial(ph.name, false)
	}
	if target == nil {
		target = c.artificial(ph.name, false)
	}
	if target.kind == KindOrdinary {
		c.link(ph, target)
		c.RecordAccess(target)
	}
	return target
}

func (c *Cache) link(ph, ci *ClassInfo) {
	ph.placeholder.target = ci
	ci.ordinary.placeholder = ph
}

// artificial registers a stand-in ordinary record for a class whose
// bytecode is unavailable.
func (c *Cache) artificial(name string, forFailedLoad bool) *ClassInfo {
	ci := c.newArtificial(name, forFailedLoad)
	if !c.Register(ci) {
		return c.lookupConcrete(ci.name)
	}
	c.artificials++
	c.logger.Debug("created artificial class", zap.String("class", name), zap.Bool("forFailedLoad", forFailedLoad))
	return ci
}

func (c *Cache) newArtificial(name string, forFailedLoad bool) *ClassInfo {
	superName := objectClassName
	if name == objectClassName {
		superName = ""
	}
	ci := c.newOrdinary(name, classfile.AccPublic, superName, nil)
	ci.ordinary.artificial = true
	ci.ordinary.forFailedLoad = forFailedLoad
	return ci
}

func (c *Cache) newOrdinary(name string, access uint16, superName string, interfaceNames []string) *ClassInfo {
	classNames := c.interns.ClassNames()
	name = classNames.Intern(name)
	for i, iface := range interfaceNames {
		interfaceNames[i] = classNames.Intern(iface)
	}
	return &ClassInfo{
		kind:  KindOrdinary,
		name:  name,
		cache: c,
		ordinary: &ordinaryClass{
			access:         access,
			packageName:    c.interns.PackageNames().Intern(packageOf(name)),
			superName:      classNames.Intern(superName),
			interfaceNames: interfaceNames,
		},
	}
}

func (c *Cache) newArray(name string) *ClassInfo {
	element := c.Resolve(strings.TrimSuffix(name, "[]"))
	return &ClassInfo{
		kind:  KindArray,
		name:  c.interns.ClassNames().Intern(name),
		cache: c,
		array: &arrayClass{element: element},
	}
}

// Register adds a freshly populated ordinary record. Classes of reserved
// namespaces go to the java table, annotated classes to the annotated
// table, stand-ins for failed loads to the failed table, and everything else to the front of the LRU table, evicting the
// least recently used class when over capacity. It returns false, leaving
// the existing record in place, when the name is already registered.
func (c *Cache) Register(ci *ClassInfo) bool {
	if ci.kind != KindOrdinary {
		c.logger.Warn("rejected registration of non-ordinary class",
			zap.String("class", ci.name), zap.Stringer("kind", ci.kind))
		return false
	}
	if existing := c.lookupConcrete(ci.name); existing != nil {
		if existing == ci {
			c.logger.Warn("duplicate registration of class", zap.String("class", ci.name))
		} else {
			c.logger.Warn("conflicting registration of class; keeping existing record",
				zap.String("class", ci.name), zap.Bool("existingArtificial", existing.ordinary.artificial))
		}
		return false
	}

	switch {
	case isJavaClass(ci.name):
		c.javaClasses[ci.name] = ci
		ci.ordinary.table = TableJava
	case ci.hasAnnotations():
		c.annotated[ci.name] = ci
		ci.ordinary.table = TableAnnotated
	case ci.ordinary.forFailedLoad:
		c.failed[ci.name] = ci
		ci.ordinary.table = TableFailed
	default:
		ci.ordinary.table = TableEvictable
		c.classes.Add(ci.name, ci)
	}

	if ph, ok := c.placeholders[ci.name]; ok {
		c.link(ph, ci)
	}
	return true
}

// RecordAccess marks an evictable class as most recently used.
func (c *Cache) RecordAccess(ci *ClassInfo) {
	if ci.kind != KindOrdinary || ci.ordinary.table != TableEvictable {
		return
	}
	c.classes.Get(ci.name)
}

// RemoveAsDelayable moves an evictable class to the annotated table, for a
// class found to carry annotations after registration. It keeps the
// placeholder link and reports whether the class moved.
func (c *Cache) RemoveAsDelayable(ci *ClassInfo) bool {
	if ci.kind != KindOrdinary || ci.ordinary.table != TableEvictable {
		return false
	}
	c.relocating = ci
	c.classes.Remove(ci.name)
	c.relocating = nil
	c.annotated[ci.name] = ci
	ci.ordinary.table = TableAnnotated
	return true
}

func (c *Cache) onEvict(name string, ci *ClassInfo) {
	if ci == c.relocating {
		return
	}
	c.evictions++
	ci.ordinary.table = TableNone
	if ph := ci.ordinary.placeholder; ph != nil {
		ph.placeholder.target = nil
		ci.ordinary.placeholder = nil
	}
	c.logger.Debug("evicted class", zap.String("class", name))
}

// Location reports which table answers for name, in resolution order.
func (c *Cache) Location(name string) Table {
	name = normalizeName(name)
	switch {
	case c.primitives[name] != nil:
		return TablePrimitive
	case c.javaClasses[name] != nil:
		return TableJava
	case c.annotated[name] != nil:
		return TableAnnotated
	case c.failed[name] != nil:
		return TableFailed
	case c.classes.Contains(name):
		return TableEvictable
	case c.placeholders[name] != nil:
		return TablePlaceholder
	default:
		return TableNone
	}
}

// EvictableNames returns the evictable class names, least recently used first.
func (c *Cache) EvictableNames() []string {
	return c.classes.Keys()
}

// GetPackage returns the package record for name, loading its package-info
// if needed. It returns nil when the package has no package-info.
func (c *Cache) GetPackage(name string) *PackageInfo {
	return c.ResolvePackage(name, false)
}

// ResolvePackage returns the package record for name. When no package-info
// exists it returns nil, or with force an artificial record. When the
// scanner is unavailable it returns nil and records nothing. A package-info
// that exists but fails to load always yields an artificial record marked
// for a failed load. Artificial records are registered, so later lookups
// return the same record.
func (c *Cache) ResolvePackage(name string, force bool) *PackageInfo {
	name = normalizeName(name)
	if p, ok := c.packages[name]; ok {
		return p
	}

	failed := false
	if c.scanner != nil {
		c.scans++
		err := c.scanner.ScanClass(packageInfoClassName(name))
		if p, ok := c.packages[name]; ok {
			return p
		}
		if errors.Is(err, ErrScannerUnavailable) {
			c.logger.Warn("package scanner unavailable", zap.String("package", name), zap.Error(err))
			return nil
		}
		if err != nil {
			c.scanFailures++
			if errors.Is(err, fs.ErrNotExist) {
				c.logger.Debug("package-info not found", zap.String("package", name))
			} else {
				failed = true
				c.logger.Warn("package-info load failed", zap.String("package", name), zap.Error(err))
			}
		}
	}
	if !failed && !force {
		return nil
	}

	p := &PackageInfo{
		name:          c.interns.PackageNames().Intern(name),
		artificial:    true,
		forFailedLoad: failed,
	}
	c.packages[p.name] = p
	return p
}

// AddPackage registers a package record, returning false if the package
// already has one.
func (c *Cache) AddPackage(p *PackageInfo) bool {
	if _, ok := c.packages[p.name]; ok {
		c.logger.Warn("duplicate registration of package", zap.String("package", p.name))
		return false
	}
	c.packages[p.name] = p
	return true
}

func (c *Cache) hasPackage(name string) bool {
	_, ok := c.packages[name]
	return ok
}

// Stats reports table sizes and counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Capacity:          c.capacity,
		JavaClasses:       len(c.javaClasses),
		AnnotatedClasses:  len(c.annotated),
		FailedClasses:     len(c.failed),
		EvictableClasses:  c.classes.Len(),
		Placeholders:      len(c.placeholders),
		Packages:          len(c.packages),
		Evictions:         c.evictions,
		ScansRequested:    c.scans,
		ScanFailures:      c.scanFailures,
		ArtificialClasses: c.artificials,
		Interns:           c.interns.Stats(),
	}
}

// normalizeName accepts binary names, internal names and JVM array names
// ("[Ljava.lang.String;") and returns the binary form ("java.lang.String[]").
func normalizeName(name string) string {
	if strings.HasPrefix(name, "[") {
		if converted, err := classfile.DescriptorClassName(classfile.BinaryToInternal(name)); err == nil {
			return converted
		}
	}
	if strings.IndexByte(name, '/') >= 0 {
		return classfile.InternalToBinary(name)
	}
	return name
}
