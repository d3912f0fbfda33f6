package tasks

import (
	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

// FilterPlaylists restricts list to the include names when any are given, then removes the
// exclude names. Names are compared after [shared.Slug]. Order is preserved.
func FilterPlaylists(list []models.PlaylistDescriptor, include, exclude []string) []models.PlaylistDescriptor {
	includeSet := slugSet(include)
	excludeSet := slugSet(exclude)

	out := make([]models.PlaylistDescriptor, 0, len(list))
	for _, pl := range list {
		name := shared.Slug(pl.Name)
		if len(includeSet) > 0 {
			if _, ok := includeSet[name]; !ok {
				continue
			}
		}
		if _, ok := excludeSet[name]; ok {
			continue
		}
		out = append(out, pl)
	}
	return out
}

func slugSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if s := shared.Slug(n); s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}
