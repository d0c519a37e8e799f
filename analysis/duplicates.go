package analysis

// DefaultDuplicateThreshold is the maximum hamming distance at which two
// perceptual hashes are treated as near-duplicates.
const DefaultDuplicateThreshold = 10

// HashedPhoto pairs a photo ID with its perceptual hash for grouping.
type HashedPhoto struct {
	ID    string
	PHash string
}

// GroupDuplicates partitions photos into near-duplicate groups using greedy
// first-match assignment: each photo joins the earliest group whose leader
// is within threshold, otherwise it starts a new group. Photos without a
// hash always form singleton groups. Input order is preserved within and
// across groups.
func GroupDuplicates(photos []HashedPhoto, threshold int) [][]string {
	var groups [][]string
	var leaders []string

	for _, p := range photos {
		placed := false
		if p.PHash != "" {
			for i, leader := range leaders {
				if leader != "" && HammingDistance(p.PHash, leader) < threshold {
					groups[i] = append(groups[i], p.ID)
					placed = true
					break
				}
			}
		}
		if !placed {
			groups = append(groups, []string{p.ID})
			leaders = append(leaders, p.PHash)
		}
	}

	return groups
}
