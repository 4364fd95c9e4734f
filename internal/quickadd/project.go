package quickadd

import (
	"strings"

	"github.com/nissyi-gh/taskdeck/internal/model"
)

// MatchProject finds the project a free-text name refers to. It tries,
// in order: exact name equality, substring containment, then prefix
// match, all case-insensitive. Ties within a tier go to the first
// project in list order.
func MatchProject(projects []model.Project, query string) (model.Project, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return model.Project{}, false
	}

	for _, p := range projects {
		if strings.ToLower(p.Name) == q {
			return p, true
		}
	}
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), q) {
			return p, true
		}
	}
	for _, p := range projects {
		if strings.HasPrefix(strings.ToLower(p.Name), q) {
			return p, true
		}
	}
	return model.Project{}, false
}
