package sqlcomment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"
)

// Unknown is the file tag value used when the caller cannot be resolved.
const Unknown = "unknown"

// ErrCallerNotFound is returned by StackLocator when every frame on the stack
// belongs to this library or to a dependency.
var ErrCallerNotFound = errors.New("sqlcomment: caller not found")

// modulePath is the import path prefix of this library.
const modulePath = "github.com/kroma-labs/sqlcommenter-go"

// LibraryPackages lists the packages whose frames are never reported as the
// caller, except for frames in their _test.go files.
var LibraryPackages = []string{
	modulePath + "/sqlcomment",
	modulePath + "/sql",
	modulePath + "/sqlx",
	modulePath + "/httpserver",
}

// maxDepth bounds the number of frames inspected per lookup.
const maxDepth = 64

// Locator resolves the source location that issued a query.
type Locator interface {
	Locate(ctx context.Context) (string, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (string, error)

// Locate implements Locator.
func (f LocatorFunc) Locate(ctx context.Context) (string, error) {
	return f(ctx)
}

// StackLocator finds the caller by walking the goroutine's call stack.
//
// It returns the file of the most recent frame that is neither part of the
// library (see LibraryPackages) nor a dependency. Dependencies are the
// standard library and code under a module cache or vendor directory, which
// covers drivers and helpers such as sqlx sitting between the application and
// the instrumented connection.
type StackLocator struct {
	root     string
	packages []string
}

// NewStackLocator creates a StackLocator reporting paths relative to root.
// An empty root reports absolute paths. Extra packages are treated like the
// library's own packages, e.g. an application's data access layer.
func NewStackLocator(root string, packages ...string) *StackLocator {
	pkgs := make([]string, 0, len(LibraryPackages)+len(packages))
	pkgs = append(pkgs, LibraryPackages...)
	pkgs = append(pkgs, packages...)
	return &StackLocator{root: root, packages: pkgs}
}

// DefaultStackLocator returns a StackLocator rooted at the working directory.
func DefaultStackLocator() *StackLocator {
	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}
	return NewStackLocator(wd)
}

// Locate implements Locator.
func (l *StackLocator) Locate(_ context.Context) (string, error) {
	pcs := make([]uintptr, maxDepth)
	// Skip runtime.Callers and Locate.
	n := runtime.Callers(2, pcs)
	if n == 0 {
		return "", ErrCallerNotFound
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.File != "" && !l.internal(frame) && !host.isDependency(frame) {
			return l.relative(frame.File), nil
		}
		if !more {
			return "", ErrCallerNotFound
		}
	}
}

func (l *StackLocator) internal(frame runtime.Frame) bool {
	if strings.HasSuffix(frame.File, "_test.go") {
		return false
	}
	pkg := funcPackage(frame.Function)
	for _, p := range l.packages {
		if pkg == p {
			return true
		}
	}
	return false
}

func (l *StackLocator) relative(file string) string {
	if l.root == "" || !filepath.IsAbs(file) {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(l.root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

// buildEnv locates the standard library and the main module of the running
// binary.
type buildEnv struct {
	// stdlibDir is the slash separated GOROOT/src directory with a trailing
	// slash, empty when the binary was built with -trimpath.
	stdlibDir string

	// mainModule is the module path of the main package, if known.
	mainModule string
}

var host = detectBuildEnv()

func detectBuildEnv() buildEnv {
	var env buildEnv

	// strings.Cut lives in GOROOT/src/strings/strings.go.
	pc := reflect.ValueOf(strings.Cut).Pointer()
	if fn := runtime.FuncForPC(pc); fn != nil {
		file, _ := fn.FileLine(pc)
		file = filepath.ToSlash(file)
		if dir, ok := strings.CutSuffix(file, "strings/strings.go"); ok && dir != "" {
			env.stdlibDir = dir
		}
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		env.mainModule = info.Main.Path
	}
	return env
}

// isDependency reports whether frame belongs to the standard library or to a
// third-party module. Application packages are never dependencies, whatever
// their import path looks like.
func (e buildEnv) isDependency(frame runtime.Frame) bool {
	file := filepath.ToSlash(frame.File)
	if e.stdlibDir != "" && strings.HasPrefix(file, e.stdlibDir) {
		return true
	}
	if strings.Contains(file, "/pkg/mod/") || strings.Contains(file, "/vendor/") {
		return true
	}

	// With -trimpath, module files are reported as "example.com/mod@v1.2.3/x.go".
	if strings.Contains(file, "@v") {
		return true
	}

	pkg := funcPackage(frame.Function)
	if pkg == "" || pkg == "main" {
		return false
	}
	if e.mainModule != "" && (pkg == e.mainModule || strings.HasPrefix(pkg, e.mainModule+"/")) {
		return false
	}

	// With -trimpath, standard library files are reported by import path,
	// e.g. "database/sql/sql.go", and have no dot in their first element.
	if e.stdlibDir == "" && !filepath.IsAbs(frame.File) {
		first, _, _ := strings.Cut(pkg, "/")
		return !strings.Contains(first, ".")
	}
	return false
}

// funcPackage returns the import path of a fully qualified function name such
// as "github.com/a/b.(*T).Method" or "database/sql.(*DB).QueryContext".
func funcPackage(fn string) string {
	// Type arguments may hold import paths of their own.
	if i := strings.IndexByte(fn, '['); i >= 0 {
		fn = fn[:i]
	}
	slash := strings.LastIndexByte(fn, '/')
	dot := strings.IndexByte(fn[slash+1:], '.')
	if dot < 0 {
		return fn
	}
	return fn[:slash+1+dot]
}

// callerKey is the context key for an explicitly propagated caller.
type callerKey struct{}

// WithCaller returns a context carrying file as the query's caller.
// ContextLocator prefers it over stack inspection.
func WithCaller(ctx context.Context, file string) context.Context {
	return context.WithValue(ctx, callerKey{}, file)
}

// CallerFromContext returns the caller stored by WithCaller.
func CallerFromContext(ctx context.Context) (string, bool) {
	file, ok := ctx.Value(callerKey{}).(string)
	return file, ok && file != ""
}

// ContextLocator returns the caller stored in the context and falls back to
// another Locator when there is none.
type ContextLocator struct {
	Fallback Locator
}

// Locate implements Locator.
func (l ContextLocator) Locate(ctx context.Context) (string, error) {
	if file, ok := CallerFromContext(ctx); ok {
		return file, nil
	}
	if l.Fallback == nil {
		return "", ErrCallerNotFound
	}
	return l.Fallback.Locate(ctx)
}
