package smile

// SelectBest returns the cluster with the most members. Ties go to the cluster
// created first.
func SelectBest(table *ClusterTable) (Cluster, error) {
	clusters := table.Clusters()
	if len(clusters) == 0 {
		return Cluster{}, ErrNoClusters
	}

	best := clusters[0]
	for _, c := range clusters[1:] {
		if c.Members > best.Members {
			best = c
		}
	}
	return best, nil
}
