package info

// maxHierarchyDepth bounds superclass walks over malformed, cyclic input.
const maxHierarchyDepth = 1024

// Methods returns the methods visible on the class: every declared method,
// plus the superclass's visible methods that are neither private, nor
// package-private from another package, nor overridden by a declared
// method with the same name and descriptor.
func (ci *ClassInfo) Methods() []*MethodInfo {
	return ci.visibleMethods(0)
}

func (ci *ClassInfo) visibleMethods(depth int) []*MethodInfo {
	ci = ci.Concrete()
	declared := ci.DeclaredMethods()
	super := ci.Superclass()
	if super == nil || depth >= maxHierarchyDepth {
		return declared
	}

	methods := make([]*MethodInfo, len(declared), len(declared)+8)
	copy(methods, declared)
	pkg := ci.PackageName()
	for _, m := range super.visibleMethods(depth + 1) {
		if m.IsPrivate() {
			continue
		}
		if m.IsPackagePrivate() && m.declaringClass.PackageName() != pkg {
			continue
		}
		if overridden(declared, m) {
			continue
		}
		methods = append(methods, m)
	}
	return methods
}

func overridden(declared []*MethodInfo, m *MethodInfo) bool {
	for _, d := range declared {
		if d.overrides(m) {
			return true
		}
	}
	return false
}

// Annotations returns the declared annotations plus the @Inherited
// annotations of the superclass chain whose type the class does not
// declare itself. Interfaces contribute nothing.
func (ci *ClassInfo) Annotations() []*AnnotationInfo {
	return ci.effectiveAnnotations(0)
}

func (ci *ClassInfo) effectiveAnnotations(depth int) []*AnnotationInfo {
	ci = ci.Concrete()
	declared := ci.DeclaredAnnotations()
	super := ci.Superclass()
	if super == nil || depth >= maxHierarchyDepth {
		return declared
	}

	var anns []*AnnotationInfo
	for _, a := range super.effectiveAnnotations(depth + 1) {
		if findAnnotation(declared, a.className) != nil || !a.IsInherited() {
			continue
		}
		if anns == nil {
			anns = make([]*AnnotationInfo, len(declared), len(declared)+2)
			copy(anns, declared)
		}
		anns = append(anns, a)
	}
	if anns == nil {
		return declared
	}
	return anns
}

// Annotation returns the effective annotation of the given type, or nil.
func (ci *ClassInfo) Annotation(name string) *AnnotationInfo {
	return findAnnotation(ci.Annotations(), name)
}

// IsAnnotationPresent reports whether the class declares or inherits an
// annotation of the given type.
func (ci *ClassInfo) IsAnnotationPresent(name string) bool {
	return ci.Annotation(name) != nil
}

// IsInstanceOf reports whether a value of this class is an instance of the
// named class: the class itself, any of its interfaces, or any superclass.
func (ci *ClassInfo) IsInstanceOf(name string) bool {
	return ci.isInstanceOf(normalizeName(name), 0)
}

func (ci *ClassInfo) isInstanceOf(name string, depth int) bool {
	if ci.name == name {
		return true
	}
	if depth >= maxHierarchyDepth {
		return false
	}
	ci = ci.Concrete()
	switch ci.kind {
	case KindPrimitive:
		return false
	case KindArray:
		if name == objectClassName || name == cloneableClassName || name == serializableClassName {
			return true
		}
		elem := ci.array.element
		if target, ok := arrayElementName(name); ok && !elem.IsPrimitive() {
			return elem.isInstanceOf(target, depth+1)
		}
		return false
	}

	if name == objectClassName {
		return true
	}
	for _, iface := range ci.Interfaces() {
		if iface.isInstanceOf(name, depth+1) {
			return true
		}
	}
	if ci.IsInterface() {
		return false
	}
	if super := ci.Superclass(); super != nil {
		return super.isInstanceOf(name, depth+1)
	}
	return false
}

// IsAssignableFrom reports whether a value of the named class is an
// instance of this class.
func (ci *ClassInfo) IsAssignableFrom(name string) bool {
	return ci.cache.Resolve(name).IsInstanceOf(ci.name)
}

func arrayElementName(name string) (string, bool) {
	if len(name) > 2 && name[len(name)-2:] == "[]" {
		return name[:len(name)-2], true
	}
	return "", false
}
