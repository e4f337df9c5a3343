package smile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestResolver_GroupedPair(t *testing.T) {
	svc := newFakeService()
	svc.partition = &Partition{Groups: [][]string{{"f1", "f2"}}}
	log, _ := nullLogger()

	table, err := NewResolver(svc, 0, log).Resolve(context.Background(),
		snapshotOf(record("f1", 0.8), record("f2", 0.5)))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	clusters := table.Clusters()
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	c := clusters[0]
	if c.RepresentativeID() != "f1" || c.Members != 2 || c.Best.Ratio != 0.8 {
		t.Errorf("unexpected cluster %+v", c)
	}
	if len(svc.groupCalls) != 1 || len(svc.groupCalls[0]) != 2 {
		t.Errorf("expected one grouping call with 2 ids, got %v", svc.groupCalls)
	}
}

func TestResolver_MessyGroupBecomesSingletons(t *testing.T) {
	svc := newFakeService()
	svc.partition = &Partition{Ungrouped: []string{"f1", "f2"}}
	log, _ := nullLogger()

	table, err := NewResolver(svc, 0, log).Resolve(context.Background(),
		snapshotOf(record("f1", 0.8), record("f2", 0.5)))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	clusters := table.Clusters()
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	for _, c := range clusters {
		if c.Members != 1 {
			t.Errorf("expected singleton, got %d members for %s", c.Members, c.RepresentativeID())
		}
	}
}

func TestResolver_BatchTooLargeMakesNoCall(t *testing.T) {
	svc := newFakeService()
	log, _ := nullLogger()

	var records []FaceRecord
	for i := 0; i < 4; i++ {
		records = append(records, record(fmt.Sprintf("f%d", i), 0.1))
	}

	_, err := NewResolver(svc, 3, log).Resolve(context.Background(), snapshotOf(records...))
	var tooLarge *GroupingBatchTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected GroupingBatchTooLargeError, got %v", err)
	}
	if tooLarge.Count != 4 || tooLarge.Max != 3 {
		t.Errorf("unexpected error fields %+v", tooLarge)
	}
	if len(svc.groupCalls) != 0 {
		t.Errorf("expected no grouping call, got %d", len(svc.groupCalls))
	}
}

func TestResolver_GroupingFailure(t *testing.T) {
	svc := newFakeService()
	svc.groupErr = errors.New("service unavailable")
	log, _ := nullLogger()

	_, err := NewResolver(svc, 0, log).Resolve(context.Background(), snapshotOf(record("f1", 0.1)))
	var groupingErr *GroupingError
	if !errors.As(err, &groupingErr) {
		t.Fatalf("expected GroupingError, got %v", err)
	}
	if !errors.Is(err, svc.groupErr) {
		t.Error("expected GroupingError to wrap the service error")
	}
}

func TestResolver_EmptySnapshotSkipsCall(t *testing.T) {
	svc := newFakeService()
	log, _ := nullLogger()

	table, err := NewResolver(svc, 0, log).Resolve(context.Background(), NewRegistry().Snapshot())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("expected empty table, got %d clusters", table.Len())
	}
	if len(svc.groupCalls) != 0 {
		t.Errorf("expected no grouping call, got %d", len(svc.groupCalls))
	}
}

func TestResolver_UnknownGroupIsSkippedWithWarning(t *testing.T) {
	log, hook := nullLogger()
	r := NewResolver(newFakeService(), 0, log)
	table := NewClusterTable()

	r.Apply(table, snapshotOf(record("f1", 0.4)), &Partition{
		Groups:    [][]string{{"ghost1", "ghost2"}},
		Ungrouped: []string{"f1"},
	})

	if table.Len() != 1 {
		t.Fatalf("expected 1 cluster, got %d", table.Len())
	}
	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	if warnings == 0 {
		t.Error("expected a warning for the unknown group")
	}
}

func TestResolver_MergeIntoExistingAcrossGroups(t *testing.T) {
	log, _ := nullLogger()
	r := NewResolver(newFakeService(), 0, log)
	snap := snapshotOf(record("f1", 0.3), record("f2", 0.2), record("f3", 0.7), record("f4", 0.1))
	table := NewClusterTable()

	r.Apply(table, snap, &Partition{Groups: [][]string{{"f1", "f2"}, {"f1", "f3"}}, Ungrouped: []string{"f4"}})

	clusters := table.Clusters()
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].RepresentativeID() != "f3" || clusters[0].Members != 3 {
		t.Errorf("unexpected merged cluster %+v", clusters[0])
	}
	if _, ok := table.lookup("f1"); !ok {
		t.Error("expected superseded representative f1 to stay indexed")
	}
}

func TestResolver_ApplyTwiceIsIdempotent(t *testing.T) {
	log, _ := nullLogger()
	r := NewResolver(newFakeService(), 0, log)
	snap := snapshotOf(record("a", 0.1), record("b", 0.2), record("c", 0.3))
	p := &Partition{Groups: [][]string{{"a", "b"}}, Ungrouped: []string{"c"}}

	table := NewClusterTable()
	r.Apply(table, snap, p)
	before := table.Clusters()
	r.Apply(table, snap, p)
	after := table.Clusters()

	if len(before) != len(after) {
		t.Fatalf("cluster count changed from %d to %d", len(before), len(after))
	}
	for i := range before {
		b, a := before[i], after[i]
		if b.ID != a.ID || b.Members != a.Members || b.Best.FaceID != a.Best.FaceID || b.Best.Ratio != a.Best.Ratio {
			t.Errorf("cluster %d changed: %+v -> %+v", i, b, a)
		}
	}
}

func TestResolver_PartitionProperties(t *testing.T) {
	tests := []struct {
		name      string
		ratios    map[string]float64
		partition Partition
	}{
		{
			name:      "all grouped",
			ratios:    map[string]float64{"a": 0.1, "b": 0.5, "c": 0.3, "d": 0.2},
			partition: Partition{Groups: [][]string{{"a", "b"}, {"c", "d"}}},
		},
		{
			name:      "all ungrouped",
			ratios:    map[string]float64{"a": 0.1, "b": 0.5, "c": 0.3},
			partition: Partition{Ungrouped: []string{"a", "b", "c"}},
		},
		{
			name:      "mixed",
			ratios:    map[string]float64{"a": 0.1, "b": 0.5, "c": 0.3, "d": 0.9, "e": 0.05},
			partition: Partition{Groups: [][]string{{"a", "b", "c"}}, Ungrouped: []string{"d", "e"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []FaceRecord
			for id, ratio := range tt.ratios {
				records = append(records, record(id, ratio))
			}
			log, _ := nullLogger()
			table := NewClusterTable()
			NewResolver(newFakeService(), 0, log).Apply(table, snapshotOf(records...), &tt.partition)

			total := 0
			for _, c := range table.Clusters() {
				total += c.Members
			}
			if total != len(tt.ratios) {
				t.Errorf("sum of members = %d, want %d", total, len(tt.ratios))
			}

			groups := append([][]string{}, tt.partition.Groups...)
			for _, id := range tt.partition.Ungrouped {
				groups = append(groups, []string{id})
			}
			for _, g := range groups {
				maxRatio := 0.0
				for _, id := range g {
					maxRatio = max(maxRatio, tt.ratios[id])
				}
				c, ok := table.lookup(g[0])
				if !ok {
					t.Fatalf("face %s not indexed", g[0])
				}
				if c.Best.Ratio != maxRatio {
					t.Errorf("group %v: best ratio %v, want %v", g, c.Best.Ratio, maxRatio)
				}
			}
		})
	}
}
