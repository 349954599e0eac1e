package token

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// File stores the token in a single file, created with 0600. It is the
// CLI's stand-in for browser local storage.
type File struct {
	mu   sync.Mutex
	path string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Token() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *File) SetToken(tok string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(tok+"\n"), 0o600)
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Watch invokes onLoss whenever the token file is removed or emptied from
// outside this process. The session store registers its identity-clearing
// callback here. Watch may be called once; Close stops the watcher.
func (f *File) Watch(onLoss func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory, not the file: removal events for the file itself
	// are not delivered reliably once the inode is gone.
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return err
	}

	f.mu.Lock()
	f.watcher = watcher
	f.done = make(chan struct{})
	done := f.done
	f.mu.Unlock()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(f.path) {
					continue
				}
				switch {
				case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
					onLoss()
				case event.Op&fsnotify.Write != 0:
					if tok, err := f.Token(); err == nil && tok == "" {
						onLoss()
					}
				}
			case <-watcher.Errors:
			case <-done:
				return
			}
		}
	}()

	return nil
}

// Close stops the watcher started by Watch.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done != nil {
		close(f.done)
		f.done = nil
	}
	if f.watcher != nil {
		err := f.watcher.Close()
		f.watcher = nil
		return err
	}
	return nil
}
