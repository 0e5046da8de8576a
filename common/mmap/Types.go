package mmap

import "errors"


// MMap is the byte array representation of the memory mapped file in memory.
//	Mappings are read-only; an empty MMap owns no mapping.
type MMap []byte

var ErrNotRegular = errors.New("not a regular file")

// ErrFault: the mapping was read past the end of a file that shrank after it was mapped
var ErrFault = errors.New("fault reading mapped file")
