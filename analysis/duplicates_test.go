package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func hash64(prefix string) string {
	return (prefix + strings.Repeat("0", 64))[:64]
}

func flip(hash string, positions ...int) string {
	b := []byte(hash)
	for _, p := range positions {
		if b[p] == '0' {
			b[p] = '1'
		} else {
			b[p] = '0'
		}
	}
	return string(b)
}

func TestGroupDuplicatesExactMatches(t *testing.T) {
	h := hash64("")
	groups := GroupDuplicates([]HashedPhoto{
		{ID: "a", PHash: h},
		{ID: "b", PHash: h},
		{ID: "c", PHash: flip(h, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)},
	}, DefaultDuplicateThreshold)

	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, groups)
}

func TestGroupDuplicatesThresholdIsStrict(t *testing.T) {
	h := hash64("")

	// distance 9 joins, distance 10 does not
	near := flip(h, 0, 1, 2, 3, 4, 5, 6, 7, 8)
	far := flip(h, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9)

	groups := GroupDuplicates([]HashedPhoto{
		{ID: "lead", PHash: h},
		{ID: "near", PHash: near},
		{ID: "far", PHash: far},
	}, DefaultDuplicateThreshold)

	assert.Equal(t, [][]string{{"lead", "near"}, {"far"}}, groups)
}

func TestGroupDuplicatesGreedyFirstLeader(t *testing.T) {
	h := hash64("")
	// b is within threshold of both a and c; it must join a's group because
	// a's group was created first
	b := flip(h, 0, 1, 2)
	c := flip(h, 0, 1, 2, 3, 4)

	groups := GroupDuplicates([]HashedPhoto{
		{ID: "a", PHash: h},
		{ID: "b", PHash: b},
		{ID: "c", PHash: c},
	}, DefaultDuplicateThreshold)

	assert.Equal(t, [][]string{{"a", "b", "c"}}, groups)
}

func TestGroupDuplicatesUnhashedAreSingletons(t *testing.T) {
	h := hash64("")
	groups := GroupDuplicates([]HashedPhoto{
		{ID: "a", PHash: h},
		{ID: "x", PHash: ""},
		{ID: "y", PHash: ""},
		{ID: "b", PHash: h},
	}, DefaultDuplicateThreshold)

	assert.Equal(t, [][]string{{"a", "b"}, {"x"}, {"y"}}, groups)
}

func TestGroupDuplicatesEmptyInput(t *testing.T) {
	assert.Empty(t, GroupDuplicates(nil, DefaultDuplicateThreshold))
}
