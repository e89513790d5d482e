package chain

// BlockRange is an inclusive block interval.
type BlockRange struct {
	From uint64
	To   uint64
}

// Size returns the number of blocks in the range.
func (r BlockRange) Size() uint64 {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}

// ChunkRanges splits [from, to] into consecutive ranges of at most maxSize blocks.
// It returns nil when from > to. A zero maxSize yields a single range.
func ChunkRanges(from, to, maxSize uint64) []BlockRange {
	if from > to {
		return nil
	}
	if maxSize == 0 {
		return []BlockRange{{From: from, To: to}}
	}

	var ranges []BlockRange
	for start := from; start <= to; {
		end := start + maxSize - 1
		if end > to || end < start {
			end = to
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}
	return ranges
}
