package syncer

import (
	"collsync/internal/model"
	"collsync/internal/remote"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// fakeRemote is an in-memory Storage used to exercise the engine
// without a WebDAV server. It counts calls and tracks the maximum
// number of concurrently executing operations.
type fakeRemote struct {
	mu    sync.Mutex
	dirs  map[string]bool
	files map[string][]byte

	statCalls  int
	mkdirCalls int
	listCalls  int
	readCalls  int
	writeCalls int

	active        int
	maxConcurrent int

	opDelay   time.Duration
	mkdirHook func(path string) error
	listErr   error
	readErrs  map[string]error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		dirs:  map[string]bool{"/": true},
		files: make(map[string][]byte),
	}
}

func (f *fakeRemote) enter() {
	f.mu.Lock()
	f.active++
	if f.active > f.maxConcurrent {
		f.maxConcurrent = f.active
	}
	delay := f.opDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
}

func (f *fakeRemote) leave() {
	f.mu.Lock()
	f.active--
	f.mu.Unlock()
}

func (f *fakeRemote) Stat(ctx context.Context, p string) (model.RemoteEntry, error) {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.statCalls++

	if f.dirs[p] {
		return model.RemoteEntry{Path: p, Name: path.Base(p), Dir: true}, nil
	}

	if data, ok := f.files[p]; ok {
		return model.RemoteEntry{Path: p, Name: path.Base(p), Size: int64(len(data))}, nil
	}

	return model.RemoteEntry{}, fmt.Errorf("%w: %s", remote.ErrNotFound, p)
}

func (f *fakeRemote) Mkdir(ctx context.Context, p string) error {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.mkdirCalls++

	if f.mkdirHook != nil {
		if err := f.mkdirHook(p); err != nil {
			return err
		}
	}

	if f.dirs[p] {
		return fmt.Errorf("%w: %s", remote.ErrExists, p)
	}

	f.dirs[p] = true
	return nil
}

func (f *fakeRemote) List(ctx context.Context, root string) ([]model.RemoteEntry, error) {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++

	if f.listErr != nil {
		return nil, f.listErr
	}

	if !f.dirs[root] {
		return nil, fmt.Errorf("%w: %s", remote.ErrNotFound, root)
	}

	prefix := root
	if root != "/" {
		prefix = root + "/"
	}

	var entries []model.RemoteEntry
	for p := range f.dirs {
		if p != root && strings.HasPrefix(p, prefix) {
			entries = append(entries, model.RemoteEntry{Path: p, Name: path.Base(p), Dir: true})
		}
	}
	for p, data := range f.files {
		if strings.HasPrefix(p, prefix) {
			entries = append(entries, model.RemoteEntry{
				Path: p,
				Name: path.Base(p),
				Size: int64(len(data)),
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (f *fakeRemote) Read(ctx context.Context, p string) ([]byte, error) {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls++

	if err, ok := f.readErrs[p]; ok {
		return nil, err
	}

	data, ok := f.files[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", remote.ErrNotFound, p)
	}

	return append([]byte(nil), data...), nil
}

func (f *fakeRemote) Write(ctx context.Context, p string, data []byte) error {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeCalls++

	f.files[p] = append([]byte(nil), data...)
	return nil
}

func (f *fakeRemote) addFile(p string, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := path.Dir(p)
	for dir != "/" && dir != "." {
		f.dirs[dir] = true
		dir = path.Dir(dir)
	}

	f.files[p] = []byte(content)
}

func (f *fakeRemote) fileContent(p string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.files[p]
	return string(data), ok
}

func (f *fakeRemote) counts() (stat, mkdir, list, read, write int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statCalls, f.mkdirCalls, f.listCalls, f.readCalls, f.writeCalls
}
