// Package issuetest provides assertions over collected issues for tests of
// every pipeline stage.
package issuetest

import (
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/specialistvlad/toscago/internal/issue"
	"github.com/stretchr/testify/require"
)

var dumper = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}

// Sdump renders v for failure messages.
func Sdump(v ...any) string {
	return dumper.Sdump(v...)
}

// AssertIssue checks that exactly one issue of the given kind mentions
// substr, and returns it.
func AssertIssue(t *testing.T, issues []issue.Issue, kind issue.Kind, substr string) issue.Issue {
	t.Helper()

	var found []issue.Issue
	for _, i := range issues {
		if i.Kind == kind && strings.Contains(i.Message, substr) {
			found = append(found, i)
		}
	}
	require.Len(t, found, 1, "expected one %s issue mentioning %q, got:\n%s", kind, substr, Sdump(issues))
	return found[0]
}

// Fatal returns the issues that invalidate the plan.
func Fatal(issues []issue.Issue) []issue.Issue {
	var out []issue.Issue
	for _, i := range issues {
		if i.Fatal() {
			out = append(out, i)
		}
	}
	return out
}

// AssertNoFatal fails the test when any issue invalidates the plan.
func AssertNoFatal(t *testing.T, issues []issue.Issue) {
	t.Helper()

	for _, i := range issues {
		require.False(t, i.Fatal(), "unexpected issue %s, all issues:\n%s", i, Sdump(issues))
	}
}
