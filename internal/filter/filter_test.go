package filter

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"deployment-portal/backend/pkg/models"
)

var requests = []models.CABRequest{
	{ID: "cab-001", RequestID: "CAB-2024-001", ProjectName: "Project Alpha", Version: "v2.1.0", Status: models.CABPendingReview, Priority: models.PriorityHigh},
	{ID: "cab-002", RequestID: "CAB-2024-002", ProjectName: "Project Beta", Version: "v1.3.2", Status: models.CABScheduled, Priority: models.PriorityMedium},
	{ID: "cab-003", RequestID: "CAB-2024-003", ProjectName: "Project Gamma", Version: "v3.0.1", Status: models.CABApproved, Priority: models.PriorityLow},
	{ID: "cab-004", RequestID: "CAB-2024-004", ProjectName: "Project Delta", Version: "v1.0.5", Status: models.CABRejected, Priority: models.PriorityCritical},
}

func ids(rs []models.CABRequest) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"zero query", Query{}, []string{"cab-001", "cab-002", "cab-003", "cab-004"}},
		{"all facets", NewQuery("", models.FacetStatus, All, models.FacetPriority, All), []string{"cab-001", "cab-002", "cab-003", "cab-004"}},
		{"search is case insensitive", NewQuery("pRoJeCt ALPHA"), []string{"cab-001"}},
		{"search matches request id", NewQuery("2024-003"), []string{"cab-003"}},
		{"search matches version", NewQuery("v1."), []string{"cab-002", "cab-004"}},
		{"status only", NewQuery("", models.FacetStatus, "scheduled"), []string{"cab-002"}},
		{"priority only", NewQuery("", models.FacetPriority, "critical"), []string{"cab-004"}},
		{"intersection", NewQuery("v1.", models.FacetPriority, "medium"), []string{"cab-002"}},
		{"disjoint predicates", NewQuery("alpha", models.FacetStatus, "approved"), []string{}},
		{"unknown facet value", NewQuery("", models.FacetStatus, "archived"), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(requests, tt.query))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Each active predicate narrows independently; the result of the combined
// query is the intersection of the single-predicate results.
func TestApply_IsIntersectionOfPredicates(t *testing.T) {
	searches := []string{"", "project", "beta", "v1", "nothing"}
	statuses := []string{All, "pending-review", "scheduled", "approved", "rejected"}
	priorities := []string{"", "low", "medium", "high", "critical"}

	for _, s := range searches {
		for _, st := range statuses {
			for _, p := range priorities {
				combined := ids(Apply(requests, NewQuery(s, models.FacetStatus, st, models.FacetPriority, p)))

				bySearch := set(ids(Apply(requests, NewQuery(s))))
				byStatus := set(ids(Apply(requests, NewQuery("", models.FacetStatus, st))))
				byPriority := set(ids(Apply(requests, NewQuery("", models.FacetPriority, p))))

				var want []string
				for _, r := range requests {
					if bySearch[r.ID] && byStatus[r.ID] && byPriority[r.ID] {
						want = append(want, r.ID)
					}
				}
				assert.ElementsMatch(t, want, combined, "search=%q status=%q priority=%q", s, st, p)
			}
		}
	}
}

func set(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}

func TestApply_NotificationFacets(t *testing.T) {
	notes := []models.Notification{
		{ID: "n1", Type: models.NotificationEmail, Category: models.CategorySecurity, Status: models.NotificationSent, Title: "Security Assessment Required", Recipient: "security-team@company.com"},
		{ID: "n2", Type: models.NotificationSystem, Category: models.CategorySecurity, Status: models.NotificationRead, Title: "Vulnerabilities Found", Message: "3 critical vulnerabilities"},
		{ID: "n3", Type: models.NotificationEmail, Category: models.CategoryDeployment, Status: models.NotificationSent, Title: "Deployment Successful"},
	}

	got := Apply(notes, NewQuery("", models.FacetType, "email", models.FacetCategory, "security"))
	assert.Len(t, got, 1)
	assert.Equal(t, "n1", got[0].ID)

	got = Apply(notes, NewQuery("CRITICAL"))
	assert.Len(t, got, 1)
	assert.Equal(t, "n2", got[0].ID)

	got = Apply(notes, NewQuery("security-team"))
	assert.Len(t, got, 1)
}

func TestQuery_With_DoesNotMutate(t *testing.T) {
	base := NewQuery("alpha", models.FacetStatus, "approved")
	derived := base.With(models.FacetStatus, "rejected")

	assert.Equal(t, "approved", base.Facet(models.FacetStatus))
	assert.Equal(t, "rejected", derived.Facet(models.FacetStatus))
	assert.Equal(t, All, base.Facet(models.FacetPriority))
}

func TestCountBy(t *testing.T) {
	counts := CountBy(requests, models.FacetStatus)
	assert.Equal(t, 1, counts["pending-review"])
	assert.Equal(t, 1, counts["approved"])
	assert.Equal(t, 0, counts["on-hold"])

	highOrWorse := CountWhere(requests, func(r models.CABRequest) bool {
		return r.Priority == models.PriorityHigh || r.Priority == models.PriorityCritical
	})
	assert.Equal(t, 2, highOrWorse)
}

func TestParseQuery(t *testing.T) {
	values := url.Values{
		"search":   {"delta"},
		"status":   {"rejected"},
		"priority": {"all"},
		"owner":    {"ignored"},
	}
	q := ParseQuery(values, "status", "priority", "category")

	want := Query{Search: "delta", Facets: map[string]string{"status": "rejected", "priority": "all"}}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("ParseQuery() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, All, q.Facet("category"))
	assert.Equal(t, []string{"cab-004"}, ids(Apply(requests, q)))

	assert.False(t, ParseQuery(url.Values{}, "status").Active())
}
