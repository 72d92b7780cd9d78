// Package hungarian solves the minimum-cost assignment problem over a
// rectangular cost matrix in O(n²·m) time using the Hungarian method with
// dual potentials.
// https://en.wikipedia.org/wiki/Hungarian_algorithm
package hungarian

import "math"

// Pair is one row-to-column assignment chosen by Solve.
type Pair struct {
	Row int
	Col int
}

// Solve returns a minimum-total-cost matching between the rows and columns of
// costs. Every row of the shorter dimension is assigned exactly once; surplus
// rows or columns of the longer dimension stay unassigned. The matrix must be
// rectangular. The result is deterministic for a fixed input and is ordered
// by row index.
func Solve(costs [][]float64) []Pair {
	n := len(costs)
	if n == 0 || len(costs[0]) == 0 {
		return nil
	}
	m := len(costs[0])

	if n <= m {
		return solve(costs, n, m, false)
	}
	// More rows than columns: assign against the transpose and flip back.
	transposed := make([][]float64, m)
	for j := 0; j < m; j++ {
		transposed[j] = make([]float64, n)
		for i := 0; i < n; i++ {
			transposed[j][i] = costs[i][j]
		}
	}
	return solve(transposed, m, n, true)
}

// solve implements the potentials form of the Hungarian method for n ≤ m.
// Rows and columns are 1-based internally; p[j] holds the row matched to
// column j.
func solve(a [][]float64, n, m int, flipped bool) []Pair {
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	p := make([]int, m+1)
	way := make([]int, m+1)
	minv := make([]float64, m+1)
	used := make([]bool, m+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		for j := 0; j <= m; j++ {
			minv[j] = math.Inf(1)
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := a[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= m; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		// Augment along the alternating path back to the virtual column.
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	pairs := make([]Pair, n)
	for j := 1; j <= m; j++ {
		if p[j] == 0 {
			continue
		}
		if flipped {
			pairs[p[j]-1] = Pair{Row: j - 1, Col: p[j] - 1}
		} else {
			pairs[p[j]-1] = Pair{Row: p[j] - 1, Col: j - 1}
		}
	}
	if flipped {
		return sortByRow(pairs)
	}
	return pairs
}

// sortByRow reorders pairs produced against the transposed matrix so callers
// always observe row-major order. Insertion sort is enough for hunk-sized
// inputs.
func sortByRow(pairs []Pair) []Pair {
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].Row < pairs[j-1].Row; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	return pairs
}
