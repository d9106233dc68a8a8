package io

import (
	"io/fs"
	"log"
	"maps"
	"slices"
)

// DEFAULT_SEED_NAME is the file every default session starts with.
const DEFAULT_SEED_NAME = "test.txt"

// DefaultSeed returns the initial file set of a new session.
func DefaultSeed() map[string][]byte {
	return map[string][]byte{
		DEFAULT_SEED_NAME: []byte("Hello, File!\n"),
	}
}

// Descriptor is the state of one open file.
type Descriptor struct {
	Name string // Name of the open file.
	Pos  int    // Cursor, as a byte offset into the file.
}

// FileStore is a process-local file system: named byte buffers, reached
// through integer descriptors. Descriptors are handed out in increasing order
// starting at 1 and are never reused until the store is rewound.
type FileStore struct {
	Verbose bool              // Set to enable verbose logging.
	Seed    map[string][]byte // Files present after every Rewind.

	files  map[string][]byte
	open   map[int32]*Descriptor
	nextFd int32
}

var _ Device = (*FileStore)(nil)

// NewFileStore creates a rewound file store holding a copy of seed.
func NewFileStore(seed map[string][]byte) (store *FileStore) {
	store = &FileStore{Seed: seed}
	store.Rewind()

	return
}

// Rewind discards all files and descriptors, then restores the seed files.
func (store *FileStore) Rewind() {
	store.files = make(map[string][]byte, len(store.Seed))
	for name, data := range store.Seed {
		store.files[name] = slices.Clone(data)
	}
	store.open = make(map[int32]*Descriptor)
	store.nextFd = 1
}

// Create replaces the contents of a file, creating it if needed.
func (store *FileStore) Create(name string, data []byte) {
	if store.files == nil {
		store.Rewind()
	}
	store.files[name] = slices.Clone(data)
}

// Contents returns a copy of the named file.
func (store *FileStore) Contents(name string) (data []byte, ok bool) {
	data, ok = store.files[name]
	if ok {
		data = slices.Clone(data)
	}
	return
}

// Names returns the sorted names of all files.
func (store *FileStore) Names() []string {
	return slices.Sorted(maps.Keys(store.files))
}

// Descriptor returns the state of an open descriptor.
func (store *FileStore) Descriptor(fd int32) (desc Descriptor, ok bool) {
	d, ok := store.open[fd]
	if ok {
		desc = *d
	}
	return
}

// Open opens the named file, creating an empty one if it does not exist,
// and returns a fresh descriptor with its cursor at 0.
func (store *FileStore) Open(name string) (fd int32) {
	if store.files == nil {
		store.Rewind()
	}

	if _, ok := store.files[name]; !ok {
		store.files[name] = []byte{}
	}

	fd = store.nextFd
	store.nextFd++
	store.open[fd] = &Descriptor{Name: name}

	if store.Verbose {
		log.Printf("files: open %q: fd %d", name, fd)
	}

	return
}

func (store *FileStore) descriptor(fd int32) (desc *Descriptor, err error) {
	desc, ok := store.open[fd]
	if !ok {
		err = &ErrFile{Fd: fd, Err: ErrBadDescriptor}
	}
	return
}

// Read returns up to length bytes from the cursor of fd, and advances the
// cursor by the number of bytes returned. At or past end of file the result
// is empty and the cursor does not move.
func (store *FileStore) Read(fd int32, length int) (data []byte, err error) {
	desc, err := store.descriptor(fd)
	if err != nil {
		return
	}
	if length < 0 {
		err = &ErrFile{Fd: fd, Err: ErrNegativeLength}
		return
	}

	file := store.files[desc.Name]
	start := min(desc.Pos, len(file))
	end := min(start+length, len(file))
	data = slices.Clone(file[start:end])
	if len(data) > 0 {
		desc.Pos = end
	}

	if store.Verbose {
		log.Printf("files: read fd %d: %d of %d bytes", fd, len(data), length)
	}

	return
}

// Write stores data at the cursor of fd, zero-extending the file if the
// write runs past its end, and advances the cursor by len(data).
func (store *FileStore) Write(fd int32, data []byte) (n int, err error) {
	desc, err := store.descriptor(fd)
	if err != nil {
		return
	}

	file := store.files[desc.Name]
	end := desc.Pos + len(data)
	if end > len(file) {
		file = append(file, make([]byte, end-len(file))...)
	}
	n = copy(file[desc.Pos:end], data)
	store.files[desc.Name] = file
	desc.Pos = end

	if store.Verbose {
		log.Printf("files: write fd %d: %d bytes", fd, n)
	}

	return
}

// Close invalidates fd. Closing an unknown or already closed descriptor
// returns ErrBadDescriptor.
func (store *FileStore) Close(fd int32) (err error) {
	_, err = store.descriptor(fd)
	if err != nil {
		return
	}

	delete(store.open, fd)

	if store.Verbose {
		log.Printf("files: close fd %d", fd)
	}

	return
}

// ReadSeed builds a seed from every regular file in filesys, keyed by its
// slash-separated path.
func ReadSeed(filesys fs.FS) (seed map[string][]byte, err error) {
	seed = make(map[string][]byte)
	err = fs.WalkDir(filesys, ".", func(path string, d fs.DirEntry, err_in error) (err error) {
		if err_in != nil {
			return err_in
		}
		if !d.Type().IsRegular() {
			return
		}

		data, err := fs.ReadFile(filesys, path)
		if err != nil {
			return
		}
		seed[path] = data

		return
	})
	if err != nil {
		seed = nil
	}

	return
}
