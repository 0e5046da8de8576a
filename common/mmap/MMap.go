package mmap

import "os"
import "runtime/debug"

import "golang.org/x/sys/unix"


//============================================= MMap


// MapFile
//	Open and memory map an entire regular file.
//	The descriptor is closed before returning; the mapping stays valid until Unmap.
func MapFile(path string) (MMap, error) {
	file, openErr := os.Open(path)
	if openErr != nil { return nil, openErr }

	defer file.Close()

	return Map(file)
}

// Map 
//	Memory maps an entire file read-only. Zero length files produce an empty MMap without calling mmap.
func Map(file *os.File) (MMap, error) {
	fileStat, statErr := file.Stat()
	if statErr != nil { return nil, statErr }
	if !fileStat.Mode().IsRegular() { return nil, &os.PathError{ Op: "mmap", Path: file.Name(), Err: ErrNotRegular } }
	if fileStat.Size() == 0 { return MMap{}, nil }

	bytes, mmapErr := unix.Mmap(int(file.Fd()), 0, int(fileStat.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if mmapErr != nil { return nil, mmapErr }

	return bytes, nil
}

// Unmap 
//	Unmaps the byte slice from the memory mapped file.
func (mapped MMap) Unmap() error {
	if len(mapped) == 0 { return nil }
	return unix.Munmap(mapped)
}

// Guard
//	Run fn, turning a memory fault inside it into ErrFault instead of a crash.
//	A file truncated while mapped faults on the pages past its new end. The guard only covers
//	reads made on the calling goroutine.
func Guard(fn func() error) (err error) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		recovered := recover()
		if recovered == nil { return }

		if _, isFault := recovered.(interface{ Addr() uintptr }); isFault {
			err = ErrFault
			return
		}

		panic(recovered)
	}()

	return fn()
}
