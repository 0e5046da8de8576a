package resolver

import (
	"fmt"
	"path/filepath"
	"strings"
)


//============================================= Path Resolver


// Resolve
//	Map a request path onto the served root.
//	The first component must be the root separator. Every remaining component must be a plain name,
//	so parent and current directory references, backslashes, NUL bytes and volume prefixes are rejected.
//	Repeated separators collapse. The filesystem is never touched.
func Resolve(root, requested string) (ResolvedPath, error) {
	if len(requested) == 0 || requested[0] != separator { 
		return ResolvedPath{}, fmt.Errorf("%w: %q", ErrPathNotAbsolute, requested) 
	}

	components := []string{ root }
	for _, component := range strings.Split(requested[1:], string(separator)) {
		if component == "" { continue }

		checkErr := checkComponent(component)
		if checkErr != nil { return ResolvedPath{}, checkErr }

		components = append(components, component)
	}

	return ResolvedPath{ root: root, path: filepath.Join(components...) }, nil
}

// checkComponent
//	A component is accepted only when it names a single entry inside its parent.
func checkComponent(component string) error {
	switch {
		case component == "." || component == "..":
			return fmt.Errorf("%w: %q", ErrIllegalPathComponent, component)
		case strings.ContainsAny(component, "\\\x00"):
			return fmt.Errorf("%w: %q", ErrIllegalPathComponent, component)
		case filepath.VolumeName(component) != "":
			return fmt.Errorf("%w: %q", ErrIllegalPathComponent, component)
		case strings.ContainsRune(component, filepath.Separator):
			return fmt.Errorf("%w: %q", ErrIllegalPathComponent, component)
		default:
			return nil
	}
}

// Path
//	The filesystem path to open.
func (p ResolvedPath) Path() string {
	return p.path
}

// Root
//	The root the path was resolved against.
func (p ResolvedPath) Root() string {
	return p.root
}

func (p ResolvedPath) String() string {
	return p.path
}
