package engine

import "github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/model"

// TabView describes one tab for the UI.
type TabView struct {
	Index            int             `json:"index"`
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Subjects         []model.Subject `json:"subjects"`
	PaperIDs         []string        `json:"paper_ids"`
	AllottedSeconds  int             `json:"allotted_seconds"`
	RemainingSeconds int             `json:"remaining_seconds"`
	Answered         int             `json:"answered"`
	Total            int             `json:"total"`
	Locked           bool            `json:"locked"`
	Expired          bool            `json:"expired"`
}

// View is the read model exposed to the presentation layer.
type View struct {
	GroupID         string    `json:"group_id"`
	Status          Status    `json:"status"`
	CurrentIndex    int       `json:"current_index"`
	MaxIndexReached int       `json:"max_index_reached"`
	Remaining       int       `json:"remaining"`
	CurrentTab      *TabView  `json:"current_tab,omitempty"`
	Tabs            []TabView `json:"tabs"`
	// Questions holds the answered flag of every question on the current tab.
	Questions map[string]bool `json:"questions"`
	Result    *Result         `json:"result,omitempty"`
}

// View builds the current read model.
func (s *Session) View() View {
	v := View{
		GroupID:         s.group.ID,
		Status:          s.status,
		CurrentIndex:    s.nav.Current(),
		MaxIndexReached: s.nav.Frontier(),
		Remaining:       s.Remaining(),
		Tabs:            make([]TabView, len(s.tabs)),
		Questions:       make(map[string]bool),
		Result:          s.result,
	}

	for i := range s.tabs {
		tab := &s.tabs[i]
		tv := TabView{
			Index:            i,
			ID:               tab.ID,
			Name:             tab.Name,
			Subjects:         tab.Subjects,
			PaperIDs:         tab.PaperIDs(),
			AllottedSeconds:  s.clock.Allotted(tab.ID),
			RemainingSeconds: s.clock.Remaining(tab.ID),
			Locked:           s.nav.Locked(i) || s.clock.State(tab.ID) == TimerExpired,
			Expired:          s.clock.State(tab.ID) == TimerExpired,
		}
		for _, p := range tab.Papers {
			for _, q := range p.Questions {
				tv.Total++
				answered := s.answers.Answered(q.ID)
				if answered {
					tv.Answered++
				}
				if i == s.nav.Current() {
					v.Questions[q.ID] = answered
				}
			}
		}
		v.Tabs[i] = tv
	}

	cur := v.Tabs[s.nav.Current()]
	v.CurrentTab = &cur
	return v
}

// Plan is the static tab layout of a group, available before a session starts.
type Plan struct {
	GroupID string    `json:"group_id"`
	Variant string    `json:"variant"`
	Tabs    []TabView `json:"tabs"`
	// TotalSeconds sums every tab's allotment.
	TotalSeconds int `json:"total_seconds"`
}

// BuildPlan partitions a group and computes allotments without creating a session.
func BuildPlan(group *model.ExamGroup) Plan {
	variant := group.Variant
	if !variant.Valid() {
		variant = model.VariantHSA
	}
	tabs := Partition(group.Papers)
	allotted := Durations(tabs, variant)

	plan := Plan{GroupID: group.ID, Variant: string(variant), Tabs: make([]TabView, len(tabs))}
	for i := range tabs {
		total := 0
		for _, p := range tabs[i].Papers {
			total += len(p.Questions)
		}
		secs := allotted[tabs[i].ID]
		plan.Tabs[i] = TabView{
			Index:            i,
			ID:               tabs[i].ID,
			Name:             tabs[i].Name,
			Subjects:         tabs[i].Subjects,
			PaperIDs:         tabs[i].PaperIDs(),
			AllottedSeconds:  secs,
			RemainingSeconds: secs,
			Total:            total,
			Locked:           i > 0,
		}
		plan.TotalSeconds += secs
	}
	return plan
}
