// Package engine implements the timed multi-tab exam session: it partitions
// an exam group into tabs, runs one countdown per tab, guards forward-only
// navigation, stores answers and aggregates the final submission.
package engine

import (
	"sort"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"
)

// ScienceTabID identifies the merged Physics/Chemistry/Biology tab.
const ScienceTabID = "physics-chemistry-biology"

const scienceTabName = "Physics-Chemistry-Biology"

// Tab is a timing and presentation unit holding one or more papers.
type Tab struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Subjects []model.Subject   `json:"subjects"`
	Papers   []model.ExamPaper `json:"-"`
}

// Merged reports whether the tab is the shared science block.
func (t *Tab) Merged() bool {
	return t.ID == ScienceTabID
}

// PaperIDs lists the ids of the papers in the tab, in order.
func (t *Tab) PaperIDs() []string {
	ids := make([]string, len(t.Papers))
	for i := range t.Papers {
		ids[i] = t.Papers[i].ID
	}
	return ids
}

// Partition groups papers into an ordered list of tabs. When Physics,
// Chemistry and Biology are all present they share one tab placed after
// every other tab; any other paper gets a tab of its own. Math comes first
// and Literature second in that case. Without the full science block, tabs
// follow input order one paper each.
func Partition(papers []model.ExamPaper) []Tab {
	if len(papers) == 0 {
		return nil
	}

	if !hasFullScienceBlock(papers) {
		tabs := make([]Tab, 0, len(papers))
		for _, p := range papers {
			tabs = append(tabs, singleTab(p))
		}
		return tabs
	}

	var rest, science []model.ExamPaper
	for _, p := range papers {
		if p.Subject.IsScience() {
			science = append(science, p)
			continue
		}
		rest = append(rest, p)
	}

	sort.SliceStable(rest, func(i, j int) bool {
		return subjectRank(rest[i].Subject) < subjectRank(rest[j].Subject)
	})

	tabs := make([]Tab, 0, len(rest)+1)
	for _, p := range rest {
		tabs = append(tabs, singleTab(p))
	}

	merged := Tab{
		ID:     ScienceTabID,
		Name:   scienceTabName,
		Papers: science,
	}
	for _, p := range science {
		merged.Subjects = appendUnique(merged.Subjects, p.Subject)
	}
	return append(tabs, merged)
}

func hasFullScienceBlock(papers []model.ExamPaper) bool {
	seen := make(map[model.Subject]bool, 3)
	for _, p := range papers {
		if p.Subject.IsScience() {
			seen[p.Subject] = true
		}
	}
	return seen[model.SubjectPhysics] && seen[model.SubjectChemistry] && seen[model.SubjectBiology]
}

func singleTab(p model.ExamPaper) Tab {
	return Tab{
		ID:       p.ID,
		Name:     p.Subject.DisplayName(),
		Subjects: []model.Subject{p.Subject},
		Papers:   []model.ExamPaper{p},
	}
}

func subjectRank(s model.Subject) int {
	switch s {
	case model.SubjectMath:
		return 0
	case model.SubjectLiterature:
		return 1
	default:
		return 2
	}
}

func appendUnique(list []model.Subject, s model.Subject) []model.Subject {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
