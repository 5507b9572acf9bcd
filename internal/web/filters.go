package web

import (
	"github.com/labstack/echo/v4"

	"deployment-portal/backend/internal/filter"
	"deployment-portal/backend/pkg/models"
)

// Option is one entry of a facet select.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// FacetControl is a select box narrowing one facet.
type FacetControl struct {
	Name    string
	Label   string
	Options []Option
}

// FilterBar is the search box and facet selects above a registry table.
type FilterBar struct {
	Action string
	Tab    string
	Search string
	Facets []FacetControl
}

type facetSpec struct {
	name   string
	label  string
	values []string
}

var priorityFacet = facetSpec{models.FacetPriority, "Priority", []string{
	string(models.PriorityCritical),
	string(models.PriorityHigh),
	string(models.PriorityMedium),
	string(models.PriorityLow),
}}

func statusFacet[S ~string](values ...S) facetSpec {
	spec := facetSpec{name: models.FacetStatus, label: "Status"}
	for _, v := range values {
		spec.values = append(spec.values, string(v))
	}
	return spec
}

// queryFrom reads the search term and the named facets from the URL.
func queryFrom(c echo.Context, specs ...facetSpec) filter.Query {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.name)
	}
	return filter.ParseQuery(c.QueryParams(), names...)
}

func filterBar(action string, q filter.Query, specs ...facetSpec) FilterBar {
	bar := FilterBar{Action: action, Search: q.Search}
	for _, s := range specs {
		selected := q.Facet(s.name)
		fc := FacetControl{
			Name:    s.name,
			Label:   s.label,
			Options: []Option{{Value: filter.All, Label: "All", Selected: selected == filter.All}},
		}
		for _, v := range s.values {
			fc.Options = append(fc.Options, Option{Value: v, Label: titleCase(v), Selected: selected == v})
		}
		bar.Facets = append(bar.Facets, fc)
	}
	return bar
}

// emptyMessage returns what an empty table shows.
func emptyMessage(n int, q filter.Query) string {
	switch {
	case n > 0:
		return ""
	case q.Active():
		return EmptyFilterMessage
	default:
		return "No records yet"
	}
}
