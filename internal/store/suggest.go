package store

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

type suggestion struct {
	name string
	rank int
	dist int
}

// SuggestApplications ranks known application names against a partially
// typed query: prefix matches first, then substring matches, then names
// within a small edit distance. limit <= 0 means no limit.
func (s *Store) SuggestApplications(query string, limit int) []string {
	apps := s.Applications()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return truncate(apps, limit)
	}

	maxTypos := utf8.RuneCountInString(q)/3 + 1

	var ranked []suggestion
	for _, app := range apps {
		name := strings.ToLower(app)
		switch {
		case strings.HasPrefix(name, q):
			ranked = append(ranked, suggestion{name: app, rank: 0})
		case strings.Contains(name, q):
			ranked = append(ranked, suggestion{name: app, rank: 1})
		default:
			if d := levenshtein.ComputeDistance(q, name); d <= maxTypos {
				ranked = append(ranked, suggestion{name: app, rank: 2, dist: d})
			}
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].rank != ranked[j].rank {
			return ranked[i].rank < ranked[j].rank
		}
		return ranked[i].dist < ranked[j].dist
	})

	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.name)
	}
	return truncate(out, limit)
}

func truncate(list []string, limit int) []string {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
