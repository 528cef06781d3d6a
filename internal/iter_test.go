package internal

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(seq func(func(string, int) bool)) (keys []string, values []int) {
	for key, value := range seq {
		keys = append(keys, key)
		values = append(values, value)
	}
	return
}

func TestIterSeq2Concat(t *testing.T) {
	assert := assert.New(t)

	a := slices.All([]int{10, 20})
	b := slices.All([]int{30})

	var values []int
	for _, value := range IterSeq2Concat(a, b) {
		values = append(values, value)
	}
	assert.Equal([]int{10, 20, 30}, values)

	values = nil
	for _, value := range IterSeq2Concat(a, b) {
		values = append(values, value)
		if len(values) == 2 {
			break
		}
	}
	assert.Equal([]int{10, 20}, values)

	values = nil
	for _, value := range IterSeq2Concat[int, int]() {
		values = append(values, value)
	}
	assert.Empty(values)
}

func TestIterSeq2Sorted(t *testing.T) {
	assert := assert.New(t)

	defines := map[string]int{"SP": 7, "PC": 8, "IB": 13}
	keys, values := collect(IterSeq2Sorted(maps.All(defines)))
	assert.Equal([]string{"IB", "PC", "SP"}, keys)
	assert.Equal([]int{13, 8, 7}, values)

	dups := IterSeq2Concat(maps.All(map[string]int{"B": 1}), maps.All(map[string]int{"A": 2, "B": 3}))
	keys, values = collect(IterSeq2Sorted(dups))
	assert.Equal([]string{"A", "B", "B"}, keys)
	assert.Equal([]int{2, 1, 3}, values)
}
