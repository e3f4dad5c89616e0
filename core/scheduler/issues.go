package scheduler

// IssueClass groups issues for reporting and metrics.
type IssueClass string

const (
	IssueStaffing   IssueClass = "staffing"
	IssueDependency IssueClass = "dependency"
	IssueOverlap    IssueClass = "overlap"
	IssueMaxHours   IssueClass = "max_hours"
	IssueFatal      IssueClass = "fatal"
)

// Issue is a diagnostic raised during a run.
type Issue struct {
	Class   IssueClass
	Message string
}

func messages(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Message)
	}
	return out
}
