package model

// DependencyFilter narrows dependency listings. Zero values mean "no
// constraint". Resolved edges are excluded unless IncludeResolved is set;
// broken edges are excluded unless IncludeBroken is set.
type DependencyFilter struct {
	Types           []DependencyType   `json:"types,omitempty"`
	Statuses        []DependencyStatus `json:"statuses,omitempty"`
	LinkID          string             `json:"link_id,omitempty"`
	IncludeResolved bool               `json:"include_resolved,omitempty"`
	IncludeBroken   bool               `json:"include_broken,omitempty"`
	Limit           int                `json:"limit,omitempty"`
	Offset          int                `json:"offset,omitempty"`
}

// Matches reports whether a dependency passes the filter's type and status
// constraints. Explicit status lists take precedence over the
// include_resolved / include_broken toggles.
func (f DependencyFilter) Matches(d *Dependency) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if d.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.LinkID != "" && d.LinkID != f.LinkID {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, s := range f.Statuses {
			if d.Status == s {
				return true
			}
		}
		return false
	}
	if d.Status == DepResolved && !f.IncludeResolved {
		return false
	}
	if d.Status == DepBroken && !f.IncludeBroken {
		return false
	}
	return true
}
