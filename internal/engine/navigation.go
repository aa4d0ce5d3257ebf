package engine

// Navigator tracks the displayed tab and the frontier, the highest tab
// index ever made current. current <= frontier always holds.
type Navigator struct {
	current     int
	frontier    int
	count       int
	allowReview bool
}

// NewNavigator creates a navigator over count tabs positioned on tab 0.
// With allowReview, tabs behind the frontier stay reachable; otherwise
// they lock as soon as the frontier passes them.
func NewNavigator(count int, allowReview bool) *Navigator {
	return &Navigator{count: count, allowReview: allowReview}
}

// Current returns the displayed tab index.
func (n *Navigator) Current() int { return n.current }

// Frontier returns the highest index reached so far.
func (n *Navigator) Frontier() int { return n.frontier }

// Count returns the number of tabs.
func (n *Navigator) Count() int { return n.count }

// IsLast reports whether the displayed tab is the final one.
func (n *Navigator) IsLast() bool { return n.current >= n.count-1 }

// Advance moves to the next tab and raises the frontier. It returns false
// on the final tab, where advancing means submitting instead.
func (n *Navigator) Advance() bool {
	if n.IsLast() {
		return false
	}
	n.current++
	if n.current > n.frontier {
		n.frontier = n.current
	}
	return true
}

// Locked reports whether tab i cannot be displayed right now.
func (n *Navigator) Locked(i int) bool {
	switch {
	case i < 0 || i >= n.count:
		return true
	case i == n.current:
		return false
	case i > n.frontier:
		return true
	case i < n.frontier:
		return !n.allowReview
	default:
		return false
	}
}

// JumpTo displays tab i if it is unlocked. Requests for locked or
// out-of-range tabs are ignored. It reports whether the index changed.
func (n *Navigator) JumpTo(i int) bool {
	if i == n.current || n.Locked(i) {
		return false
	}
	n.current = i
	return true
}

func (n *Navigator) restore(current, frontier int) {
	if frontier < 0 || frontier >= n.count {
		return
	}
	if current < 0 || current > frontier {
		current = frontier
	}
	n.current, n.frontier = current, frontier
}
