// Package matcher orders a user's credentials for presentation to a
// requesting context: best matches for the hostname first, then the rest,
// each band sorted by name.
package matcher

import (
	"sort"
	"strings"

	"github.com/vaultfill/vaultfill/internal/models"
)

// MatchesForHostname returns the IDs of the credentials whose hostname
// exactly equals hostname. Exact equality is the contract; broader
// domain-suffix matching is a deliberate non-feature for now.
func MatchesForHostname(set *models.CredentialSet, hostname string) map[string]struct{} {
	matches := make(map[string]struct{})
	for _, c := range set.ByHostname(hostname) {
		matches[c.ID] = struct{}{}
	}
	return matches
}

// Rank orders credentials for display: members of best first, then the
// remainder, each band in case-insensitive lexicographic order by Name.
// Equal names keep their input order. Pure function of its inputs.
func Rank(all []models.Credential, best map[string]struct{}) []models.Credential {
	ranked := make([]models.Credential, len(all))
	copy(ranked, all)
	sort.SliceStable(ranked, func(i, j int) bool {
		_, iBest := best[ranked[i].ID]
		_, jBest := best[ranked[j].ID]
		if iBest != jBest {
			return iBest
		}
		return strings.ToLower(ranked[i].Name) < strings.ToLower(ranked[j].Name)
	})
	return ranked
}

// HeaderIndexes returns the positions in a ranked sequence where a band
// header belongs: before the first credential, and before the first
// non-match when the best-match band is a non-empty strict subset.
func HeaderIndexes(total, bestCount int) []int {
	if total == 0 {
		return nil
	}
	indexes := []int{0}
	if bestCount > 0 && bestCount < total {
		indexes = append(indexes, bestCount)
	}
	return indexes
}
