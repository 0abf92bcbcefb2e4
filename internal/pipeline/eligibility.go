package pipeline

import "github.com/ishaan812/contribsum/internal/db"

// GroupReady reports whether a (contributor, repository) pair is
// eligible for a repository-work summary: it has activity, every child
// issue and commit already carries a summary, and no summarized
// aggregate row exists yet.
func GroupReady(g db.WorkGroup) bool {
	return g.Total > 0 && g.Pending == 0 && !g.HasSummary
}

// ContributorReady reports whether a contributor is eligible for a
// profile summary: all of their repository-work rows are summarized
// and the profile itself has not been written yet.
func ContributorReady(g db.ContributorGroup) bool {
	return g.WorkTotal > 0 && g.WorkPending == 0 && !g.HasSummary
}
