package telemetry

// Split partitions points into batches of at most n points.
//
// Every batch except the last has exactly n points; the last holds the
// remainder (1..n). Empty input yields no batches. The partition is
// order-preserving and lossless: concatenating the batches reproduces
// the input exactly.
//
// Parameters:
//   - points: Points to partition, already in upload order
//   - n: Maximum batch size; must be positive
//
// Returns:
//   - [][]Point: Batches sharing the input's backing array
func Split(points []Point, n int) [][]Point {
	if n <= 0 || len(points) == 0 {
		return nil
	}

	batches := make([][]Point, 0, (len(points)+n-1)/n)
	for start := 0; start < len(points); start += n {
		end := min(start+n, len(points))
		batches = append(batches, points[start:end])
	}

	return batches
}
