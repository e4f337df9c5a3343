package smile

// ClusterID is a stable handle for a cluster. Unlike the representative face
// ID it never changes once the cluster is created.
type ClusterID int

// Cluster is a set of faces judged to belong to the same person.
type Cluster struct {
	ID ClusterID
	// Best is the member with the highest ratio seen so far.
	Best FaceRecord
	// Members counts every distinct face merged into the cluster.
	Members int
}

// RepresentativeID is the face ID of the cluster's current best face.
func (c Cluster) RepresentativeID() string {
	return c.Best.FaceID
}

// ClusterTable holds the clusters built during one request. Every merged face
// ID is indexed to its cluster so a later group can be matched through any of
// its members, not only the representative.
type ClusterTable struct {
	clusters map[ClusterID]*Cluster
	order    []ClusterID
	byFace   map[string]ClusterID
	next     ClusterID
}

// NewClusterTable creates an empty table.
func NewClusterTable() *ClusterTable {
	return &ClusterTable{
		clusters: make(map[ClusterID]*Cluster),
		byFace:   make(map[string]ClusterID),
	}
}

// Len returns the number of clusters.
func (t *ClusterTable) Len() int {
	return len(t.order)
}

// lookup returns the cluster a face was merged into.
func (t *ClusterTable) lookup(faceID string) (Cluster, bool) {
	id, ok := t.byFace[faceID]
	if !ok {
		return Cluster{}, false
	}
	return *t.clusters[id], true
}

// Clusters returns copies of all clusters in creation order.
func (t *ClusterTable) Clusters() []Cluster {
	out := make([]Cluster, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.clusters[id])
	}
	return out
}

// MergeOutcome reports what Merge did with a group.
type MergeOutcome int

const (
	// MergeSkipped means the group contributed nothing new.
	MergeSkipped MergeOutcome = iota
	// MergeCreated means a new cluster was created.
	MergeCreated
	// MergeExtended means the group was added to an existing cluster.
	MergeExtended
)

// Merge folds one group of same-person faces into the table.
//
// The group joins the cluster of its first member that is already indexed;
// otherwise it starts a new cluster. Only faces not yet indexed are counted,
// so merging the same group twice changes nothing. Faces already indexed to a
// different cluster stay where they are. The cluster's best face is replaced
// only by a strictly higher ratio; among equal ratios the first one wins.
func (t *ClusterTable) Merge(members []FaceRecord) (Cluster, MergeOutcome) {
	var target *Cluster
	for _, m := range members {
		if id, ok := t.byFace[m.FaceID]; ok {
			target = t.clusters[id]
			break
		}
	}

	fresh := make([]FaceRecord, 0, len(members))
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m.FaceID]; dup {
			continue
		}
		seen[m.FaceID] = struct{}{}
		if _, indexed := t.byFace[m.FaceID]; indexed {
			continue
		}
		fresh = append(fresh, m)
	}

	if len(fresh) == 0 {
		if target != nil {
			return *target, MergeSkipped
		}
		return Cluster{}, MergeSkipped
	}

	best := fresh[0]
	for _, m := range fresh[1:] {
		if m.Ratio > best.Ratio {
			best = m
		}
	}

	outcome := MergeExtended
	if target == nil {
		target = &Cluster{ID: t.next, Best: best}
		t.next++
		t.clusters[target.ID] = target
		t.order = append(t.order, target.ID)
		outcome = MergeCreated
	} else if best.Ratio > target.Best.Ratio {
		target.Best = best
	}

	target.Members += len(fresh)
	for _, m := range fresh {
		t.byFace[m.FaceID] = target.ID
	}
	return *target, outcome
}
