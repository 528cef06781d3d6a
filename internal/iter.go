package internal

import (
	"cmp"
	"iter"
	"slices"
)

// IterSeq2Concat yields the pairs of each sequence in turn.
func IterSeq2Concat[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			for key, value := range seq {
				if !yield(key, value) {
					return
				}
			}
		}
	}
}

// IterSeq2Sorted yields the pairs of seq ordered by key.
// Later pairs with a duplicate key are kept, after the earlier ones.
func IterSeq2Sorted[K cmp.Ordered, V any](seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	type pair struct {
		key   K
		value V
	}

	return func(yield func(K, V) bool) {
		var pairs []pair
		for key, value := range seq {
			pairs = append(pairs, pair{key, value})
		}
		slices.SortStableFunc(pairs, func(a, b pair) int {
			return cmp.Compare(a.key, b.key)
		})
		for _, p := range pairs {
			if !yield(p.key, p.value) {
				return
			}
		}
	}
}
