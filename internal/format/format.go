// Package format resolves the effective container format and compression
// method for a request, either from explicit fields or from the archive
// filename suffix.
package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Container is the structural layout bundling files into one byte-stream.
type Container string

const (
	ContainerTar Container = "tar"
	ContainerZip Container = "zip"
)

// Method is the compression applied to the container. Tar containers wrap the
// whole byte-stream; zip applies its method per entry.
type Method string

const (
	MethodNone    Method = "none"
	MethodGzip    Method = "gzip"
	MethodBzip2   Method = "bzip2"
	MethodPigz    Method = "pigz"
	MethodDeflate Method = "deflate"
	MethodStore   Method = "store"
)

// Resolved is the effective (container, method) pair for one request. Exactly
// one resolution path produces it: explicit format fields, or suffix
// detection for unarchiving.
type Resolved struct {
	// Name is the format name as it appears in requests (tar.gz, tar.bz2,
	// zip).
	Name      string
	Container Container
	Method    Method
}

// ErrUnknown reports a filename whose suffix matches no supported format.
var ErrUnknown = fmt.Errorf("unknown archive format")

type formatSpec struct {
	container     Container
	defaultMethod Method
	// overrides maps a requested compression value to the method actually
	// used. Absent keys are illegal pairs.
	overrides map[string]Method
}

var formats = map[string]formatSpec{
	"tar.gz": {
		container:     ContainerTar,
		defaultMethod: MethodGzip,
		overrides: map[string]Method{
			"none": MethodNone,
			"gzip": MethodGzip,
			"pigz": MethodPigz,
		},
	},
	"tar.bz2": {
		container:     ContainerTar,
		defaultMethod: MethodBzip2,
		overrides: map[string]Method{
			"none":  MethodNone,
			"bzip2": MethodBzip2,
		},
	},
	"zip": {
		container:     ContainerZip,
		defaultMethod: MethodDeflate,
		overrides: map[string]Method{
			"none": MethodStore,
		},
	},
}

// suffixes maps filename suffixes to format names. Ordered longest-first at
// match time so .tar.gz wins over .gz-style suffixes.
var suffixes = map[string]string{
	".tar.gz":  "tar.gz",
	".tar.bz2": "tar.bz2",
	".tgz":     "tar.gz",
	".tbz2":    "tar.bz2",
	".tbz":     "tar.bz2",
	".zip":     "zip",
}

// Names returns the supported format names, sorted.
func Names() []string {
	names := lo.Keys(formats)
	sort.Strings(names)
	return names
}

// Resolve produces the effective container and method for an explicit format
// name and optional compression override. An empty compression selects the
// format's natural default.
func Resolve(name, compression string) (Resolved, error) {
	spec, ok := formats[name]
	if !ok {
		return Resolved{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnknown, name, strings.Join(Names(), ", "))
	}

	method := spec.defaultMethod
	if compression != "" {
		override, ok := spec.overrides[compression]
		if !ok {
			return Resolved{}, fmt.Errorf("compression %q is not compatible with format %q", compression, name)
		}
		method = override
	}

	return Resolved{Name: name, Container: spec.container, Method: method}, nil
}

// Detect infers the format from a filename suffix, longest suffix first.
func Detect(filename string) (Resolved, error) {
	lower := strings.ToLower(filename)

	ordered := lo.Keys(suffixes)
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return ordered[i] < ordered[j]
	})

	for _, suffix := range ordered {
		if strings.HasSuffix(lower, suffix) {
			return Resolve(suffixes[suffix], "")
		}
	}

	return Resolved{}, fmt.Errorf("%w: cannot detect format of %q", ErrUnknown, filename)
}

// Compatible reports whether an explicit format+compression pair is legal
// without resolving it.
func Compatible(name, compression string) bool {
	_, err := Resolve(name, compression)
	return err == nil
}
