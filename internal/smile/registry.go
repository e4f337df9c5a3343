package smile

import "sync"

// Registry collects the faces detected during one request, keyed by face ID.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	faces map[string]FaceRecord
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{faces: make(map[string]FaceRecord)}
}

// AddAll stores the given records. A record whose face ID is already known
// replaces the previous one but keeps its original position.
func (r *Registry) AddAll(records []FaceRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		if _, ok := r.faces[rec.FaceID]; !ok {
			r.order = append(r.order, rec.FaceID)
		}
		r.faces[rec.FaceID] = rec
	}
}

// Len returns the number of distinct faces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Snapshot returns an immutable copy of the current contents.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	faces := make(map[string]FaceRecord, len(r.faces))
	for id, rec := range r.faces {
		faces[id] = rec
	}
	return &Snapshot{
		faces: faces,
		ids:   append([]string(nil), r.order...),
	}
}

// Snapshot is a point-in-time, read-only view of a Registry.
type Snapshot struct {
	faces map[string]FaceRecord
	ids   []string
}

// Get returns the record for a face ID.
func (s *Snapshot) Get(faceID string) (FaceRecord, bool) {
	rec, ok := s.faces[faceID]
	return rec, ok
}

// IDs returns all face IDs in insertion order. The slice is a copy.
func (s *Snapshot) IDs() []string {
	return append([]string(nil), s.ids...)
}

// Len returns the number of faces in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.ids)
}
