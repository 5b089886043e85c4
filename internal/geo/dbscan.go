package geo

// LabeledPoint pairs an opaque id with a location, the unit DBSCAN clusters
// over.
type LabeledPoint struct {
	ID    string
	Point Point
}

// Cluster maps a contiguous, zero-based cluster id to the point ids it
// contains.
type Cluster map[int][]string

// DBSCAN groups points by density. epsKm is the neighborhood radius in
// kilometers; minPoints is the minimum neighborhood size, counting the point
// itself, required to seed or extend a cluster. The neighbor list of a point
// excludes the point itself, so a point is a core point when it has at least
// minPoints-1 neighbors within epsKm; minPoints=1 makes every isolated point
// a singleton cluster.
//
// Cluster ids are contiguous starting at 0. Every point appears in at most
// one cluster. Points whose neighborhood, counting themselves, holds fewer
// than minPoints points never start a cluster (they end up as noise, absent
// from the result). The returned map never contains an empty cluster.
func DBSCAN(points []LabeledPoint, epsKm float64, minPoints int) Cluster {
	result := make(Cluster)
	if len(points) == 0 {
		return result
	}

	visited := make(map[string]bool, len(points))
	clustered := make(map[string]bool, len(points))
	nextClusterID := 0

	neighbors := func(p LabeledPoint) []string {
		var ns []string
		for _, q := range points {
			if q.ID == p.ID {
				continue
			}
			if HaversineKm(p.Point, q.Point) <= epsKm {
				ns = append(ns, q.ID)
			}
		}
		return ns
	}

	byID := make(map[string]LabeledPoint, len(points))
	for _, p := range points {
		byID[p.ID] = p
	}

	for _, p := range points {
		if visited[p.ID] {
			continue
		}

		n := neighbors(p)
		if len(n)+1 < minPoints {
			visited[p.ID] = true
			continue
		}

		clusterID := nextClusterID
		nextClusterID++
		members := []string{}

		visited[p.ID] = true
		clustered[p.ID] = true
		members = append(members, p.ID)

		seeds := append([]string{}, n...)
		for len(seeds) > 0 {
			// Pop from the back; order within a cluster is unspecified.
			qID := seeds[len(seeds)-1]
			seeds = seeds[:len(seeds)-1]

			if visited[qID] {
				continue
			}
			visited[qID] = true

			q := byID[qID]
			qNeighbors := neighbors(q)

			clustered[qID] = true
			members = append(members, qID)

			if len(qNeighbors)+1 >= minPoints {
				for _, m := range qNeighbors {
					if !visited[m] {
						seeds = append(seeds, m)
					}
				}
			}
		}

		result[clusterID] = members
	}

	return result
}
