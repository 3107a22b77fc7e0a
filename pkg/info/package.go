package info

// PackageInfo describes a package, populated from its package-info class
// when one exists.
type PackageInfo struct {
	name          string
	access        uint16
	artificial    bool
	forFailedLoad bool
	annotations   []*AnnotationInfo
}

func (p *PackageInfo) Name() string      { return p.name }
func (p *PackageInfo) Modifiers() uint16 { return p.access }
func (p *PackageInfo) String() string    { return p.name }

// IsArtificial reports whether the record was synthesized rather than read
// from a package-info class.
func (p *PackageInfo) IsArtificial() bool { return p.artificial }

// IsForFailedLoad reports whether an artificial record stands in for a
// package-info that exists but could not be loaded.
func (p *PackageInfo) IsForFailedLoad() bool { return p.forFailedLoad }

func (p *PackageInfo) Annotations() []*AnnotationInfo { return p.annotations }

func (p *PackageInfo) IsAnnotationPresent(name string) bool {
	return findAnnotation(p.annotations, name) != nil
}

func (p *PackageInfo) Annotation(name string) *AnnotationInfo {
	return findAnnotation(p.annotations, name)
}
