package session

import "sync"

// Tracker maps uploaded file names to the chunk ids their ingestion
// produced, so one file's contribution can be removed without disturbing
// others. It belongs to the calling layer; the core never keeps per-file
// state of its own.
type Tracker struct {
	mu    sync.Mutex
	files map[string][]string
	order []string
}

func NewTracker() *Tracker {
	return &Tracker{files: make(map[string][]string)}
}

// Track records the chunk ids for a file. Re-uploading the same file name
// appends to its existing ids.
func (t *Tracker) Track(file string, ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.files[file]; !ok {
		t.order = append(t.order, file)
	}
	t.files[file] = append(t.files[file], ids...)
}

// Release returns the chunk ids for a file and forgets it. Unknown files
// yield nil.
func (t *Tracker) Release(file string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids, ok := t.files[file]
	if !ok {
		return nil
	}
	delete(t.files, file)
	for i, name := range t.order {
		if name == file {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return ids
}

// IDs returns the tracked chunk ids for a file without forgetting it.
func (t *Tracker) IDs(file string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.files[file]...)
}

// Files lists tracked file names in upload order.
func (t *Tracker) Files() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

// Clear forgets everything, used after a full index reset.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files = make(map[string][]string)
	t.order = nil
}
