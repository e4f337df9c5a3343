package smile

import (
	"context"

	"github.com/sirupsen/logrus"
)

// DefaultMaxGroupIDs is the largest number of face IDs the grouping API accepts
// in a single call.
const DefaultMaxGroupIDs = 1000

// Resolver groups the faces of a registry snapshot into clusters using one
// call to the remote grouping API.
type Resolver struct {
	service FaceService
	maxIDs  int
	log     logrus.FieldLogger
}

// NewResolver creates a resolver. A non-positive maxIDs selects DefaultMaxGroupIDs.
func NewResolver(service FaceService, maxIDs int, log logrus.FieldLogger) *Resolver {
	if maxIDs <= 0 {
		maxIDs = DefaultMaxGroupIDs
	}
	return &Resolver{service: service, maxIDs: maxIDs, log: log}
}

// Resolve groups every face in the snapshot and returns the resulting table.
// An empty snapshot yields an empty table without calling the service.
func (r *Resolver) Resolve(ctx context.Context, snap *Snapshot) (*ClusterTable, error) {
	table := NewClusterTable()

	if snap.Len() == 0 {
		r.log.Debug("no faces to group")
		return table, nil
	}
	ids := snap.IDs()
	if len(ids) > r.maxIDs {
		return nil, &GroupingBatchTooLargeError{Count: len(ids), Max: r.maxIDs}
	}

	r.log.WithField("faces", len(ids)).Debug("grouping faces")
	partition, err := r.service.Group(ctx, ids)
	if err != nil {
		return nil, &GroupingError{FaceCount: len(ids), Err: err}
	}
	if partition == nil {
		partition = &Partition{}
	}

	r.Apply(table, snap, partition)
	return table, nil
}

// Apply merges a partition into the table: every group in order, then every
// ungrouped face as a group of its own.
func (r *Resolver) Apply(table *ClusterTable, snap *Snapshot, p *Partition) {
	for i, group := range p.Groups {
		r.merge(table, snap, group, logrus.Fields{"group": i})
	}
	for _, id := range p.Ungrouped {
		r.merge(table, snap, []string{id}, logrus.Fields{"ungrouped": id})
	}
	r.log.WithField("clusters", table.Len()).Debug("grouping merged")
}

func (r *Resolver) merge(table *ClusterTable, snap *Snapshot, ids []string, fields logrus.Fields) {
	log := r.log.WithFields(fields)

	members := make([]FaceRecord, 0, len(ids))
	for _, id := range ids {
		rec, ok := snap.Get(id)
		if !ok {
			log.WithField("face_id", id).Warn("grouping returned an unknown face")
			continue
		}
		members = append(members, rec)
	}
	if len(members) == 0 {
		log.Warn("skipping group without known faces")
		return
	}

	cluster, outcome := table.Merge(members)
	switch outcome {
	case MergeCreated:
		log.WithFields(logrus.Fields{
			"representative": cluster.RepresentativeID(),
			"members":        cluster.Members,
		}).Debug("cluster created")
	case MergeExtended:
		log.WithFields(logrus.Fields{
			"representative": cluster.RepresentativeID(),
			"members":        cluster.Members,
		}).Debug("cluster extended")
	case MergeSkipped:
		log.Debug("group already merged")
	}
}
