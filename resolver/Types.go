package resolver

import "errors"


// ResolvedPath: a filesystem path proven, component by component, to lie under the served root.
//	The zero value is not a valid path; values only come out of Resolve.
type ResolvedPath struct {
	root string
	path string
}

var (
	// ErrPathNotAbsolute: the requested path does not start at the root
	ErrPathNotAbsolute = errors.New("path must be absolute")
	// ErrIllegalPathComponent: the requested path contains something other than plain name segments
	ErrIllegalPathComponent = errors.New("illegal path component")
)

const separator = '/'
