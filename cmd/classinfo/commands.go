package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/daimatz/classinfo/internal/config"
	"github.com/daimatz/classinfo/pkg/classpath"
	"github.com/daimatz/classinfo/pkg/info"
	"github.com/daimatz/classinfo/pkg/store"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	warnColor    = color.New(color.FgYellow)
	missingColor = color.New(color.FgRed)
)

type options struct {
	noJDK     bool
	showStats bool
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "classinfo",
		Short: "Inspect class metadata on a JVM classpath",
		Long: color.CyanString(`classinfo reads class files from directories, jars, jmods and
S3-compatible buckets and reports their hierarchy, members and annotations
without loading them into a JVM.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringSliceP("classpath", "c", nil, "classpath entries (directories, .jar, .jmod, s3://bucket/prefix)")
	flags.Int("cache-size", config.DefaultCacheSize, "number of evictable classes kept in memory")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.noJDK, "no-jdk", false, "do not append java.base.jmod to the classpath")
	flags.BoolVar(&opts.showStats, "stats", false, "print cache statistics")
	_ = v.BindPFlag("classpath", flags.Lookup("classpath"))
	_ = v.BindPFlag("cache.size", flags.Lookup("cache-size"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	rootCmd.AddCommand(newDescribeCommand(v, opts))
	rootCmd.AddCommand(newPackageCommand(v, opts))
	return rootCmd
}

func newDescribeCommand(v *viper.Viper, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <class>...",
		Short: "Describe classes by binary name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, v, opts, func(s *store.Store) error {
				out := cmd.OutOrStdout()
				missing := 0
				for i, name := range args {
					if i > 0 {
						fmt.Fprintln(out)
					}
					ci := s.ResolveConcrete(name)
					if ci == nil {
						missingColor.Fprintf(out, "class %s not found\n", name)
						missing++
						continue
					}
					describeClass(out, ci)
				}
				if missing > 0 {
					return fmt.Errorf("%d of %d classes not found", missing, len(args))
				}
				return nil
			})
		},
	}
}

func newPackageCommand(v *viper.Viper, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "package <name>",
		Short: "Show the annotations of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, v, opts, func(s *store.Store) error {
				out := cmd.OutOrStdout()
				p := s.ResolvePackage(args[0], true)
				headingColor.Fprintf(out, "package %s%s\n", p.Name(), packageStatus(p))
				printList(out, "annotations", annotationStrings(p.Annotations()))
				return nil
			})
		},
	}
}

// withStore loads the configuration, opens a store over the resulting
// classpath and runs fn against it.
func withStore(cmd *cobra.Command, v *viper.Viper, opts *options, fn func(*store.Store) error) error {
	cfg, err := config.LoadFrom(v)
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings {
		warnColor.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	entries := cfg.Classpath
	if !opts.noJDK {
		if jmod := findJmodPath(); jmod != "" {
			entries = append(entries, jmod)
		} else {
			logger.Warn("java.base.jmod not found; JDK classes will be artificial")
		}
	}
	if len(entries) == 0 {
		return fmt.Errorf("no classpath configured; pass --classpath or set CLASSINFO_CLASSPATH")
	}

	loc, err := classpath.Parse(entries, classpath.MinioConfig{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		UseSSL:    cfg.Minio.UseSSL,
	})
	if err != nil {
		return err
	}
	s, err := store.New(loc, store.WithCapacity(cfg.CacheSize), store.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()

	if err := fn(s); err != nil {
		return err
	}
	if opts.showStats {
		printStats(cmd.OutOrStdout(), s.Stats())
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func describeClass(out io.Writer, ci *info.ClassInfo) {
	headingColor.Fprintf(out, "%s %s%s\n", classKeyword(ci), ci.Name(), classStatus(ci))
	if super := ci.SuperclassName(); super != "" {
		printList(out, "superclass", []string{super})
	}
	printList(out, "interfaces", ci.InterfaceNames())
	printList(out, "annotations", annotationStrings(ci.Annotations()))

	fields := make([]string, 0, len(ci.DeclaredFields()))
	for _, f := range ci.DeclaredFields() {
		fields = append(fields, f.TypeName()+" "+f.Name())
	}
	printList(out, "fields", fields)

	methods := ci.Methods()
	sigs := make([]string, 0, len(methods))
	for _, m := range methods {
		sigs = append(sigs, methodSignature(m))
	}
	printList(out, "methods", sigs)
}

func classKeyword(ci *info.ClassInfo) string {
	switch {
	case ci.IsAnnotationClass():
		return "@interface"
	case ci.IsInterface():
		return "interface"
	default:
		return "class"
	}
}

func classStatus(ci *info.ClassInfo) string {
	switch {
	case ci.IsForFailedLoad():
		return " (failed to load)"
	case ci.IsArtificial():
		return " (artificial)"
	default:
		return ""
	}
}

func packageStatus(p *info.PackageInfo) string {
	switch {
	case p.IsForFailedLoad():
		return " (failed to load)"
	case p.IsArtificial():
		return " (no package-info)"
	default:
		return ""
	}
}

func methodSignature(m *info.MethodInfo) string {
	return fmt.Sprintf("%s %s.%s(%s)", m.ReturnTypeName(), m.DeclaringClass().Name(), m.Name(),
		strings.Join(m.ParameterTypeNames(), ", "))
}

func annotationStrings(anns []*info.AnnotationInfo) []string {
	out := make([]string, 0, len(anns))
	for _, a := range anns {
		out = append(out, a.String())
	}
	return out
}

func printList(out io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	labelColor.Fprintf(out, "  %s:\n", label)
	for _, item := range items {
		fmt.Fprintf(out, "    %s\n", item)
	}
}

func printStats(out io.Writer, stats store.Stats) {
	fmt.Fprintln(out)
	headingColor.Fprintln(out, "stats")
	c := stats.Cache
	fmt.Fprintf(out, "  scans: %d (%s)\n", stats.Scans, stats.ScanDuration)
	for kind, n := range stats.Failures {
		fmt.Fprintf(out, "  failures (%s): %d\n", kind, n)
	}
	fmt.Fprintf(out, "  classes: java=%d annotated=%d failed=%d evictable=%d/%d placeholders=%d\n",
		c.JavaClasses, c.AnnotatedClasses, c.FailedClasses, c.EvictableClasses, c.Capacity, c.Placeholders)
	fmt.Fprintf(out, "  evictions: %d artificial: %d packages: %d\n", c.Evictions, c.ArtificialClasses, c.Packages)
	for _, st := range c.Interns {
		fmt.Fprintf(out, "  intern %s: size=%d lookups=%d\n", st.Category, st.Size, st.Lookups)
	}
}
