package analysis

import (
	"math"
)

// Merge is one agglomeration step. Leaves are numbered 0..n-1 and the
// cluster formed by step k is numbered n+k. Left < Right.
type Merge struct {
	Left     int
	Right    int
	Distance float64
	Size     int
}

// Dendrogram is the result of hierarchical clustering of topics.
type Dendrogram struct {
	Labels []string
	Merges []Merge
	// Order is the leaf order of the dendrogram, left to right.
	Order []int
}

// OrderedLabels returns Labels in dendrogram leaf order.
func (d *Dendrogram) OrderedLabels() []string {
	out := make([]string, len(d.Order))
	for i, leaf := range d.Order {
		out[i] = d.Labels[leaf]
	}
	return out
}

// Cluster runs average-linkage (UPGMA) clustering with distance 1 - r.
// NaN correlations count as distance 1. Ties merge the lowest cluster ids.
func Cluster(c *Correlation) *Dendrogram {
	n := c.Len()
	d := &Dendrogram{Labels: append([]string(nil), c.Labels...)}
	if n == 0 {
		return d
	}

	size := 2*n - 1
	dist := make([][]float64, size)
	for i := range dist {
		dist[i] = make([]float64, size)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			r := c.Values.At(i, j)
			if math.IsNaN(r) {
				dist[i][j] = 1
			} else {
				dist[i][j] = 1 - r
			}
		}
	}

	members := make([]int, size)
	active := make([]bool, size)
	for i := 0; i < n; i++ {
		members[i] = 1
		active[i] = true
	}
	children := make([][2]int, size)

	for step := 0; step < n-1; step++ {
		a, b := -1, -1
		best := math.Inf(1)
		for i := 0; i < n+step; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n+step; j++ {
				if active[j] && dist[i][j] < best {
					best, a, b = dist[i][j], i, j
				}
			}
		}

		id := n + step
		active[a], active[b] = false, false
		members[id] = members[a] + members[b]
		children[id] = [2]int{a, b}
		for k := 0; k < id; k++ {
			if !active[k] {
				continue
			}
			v := (float64(members[a])*dist[a][k] + float64(members[b])*dist[b][k]) / float64(members[id])
			dist[id][k], dist[k][id] = v, v
		}
		active[id] = true
		d.Merges = append(d.Merges, Merge{Left: a, Right: b, Distance: best, Size: members[id]})
	}

	var walk func(id int)
	walk = func(id int) {
		if id < n {
			d.Order = append(d.Order, id)
			return
		}
		walk(children[id][0])
		walk(children[id][1])
	}
	walk(size - 1)
	return d
}
