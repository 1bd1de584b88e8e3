package layout

// ChangeListener receives a node's coalesced change notification.
type ChangeListener interface {
	LayoutChanged(n Node, flags ChangeFlags)
}

// Scheduler coalesces change notifications. Nodes report flags as they
// mutate; the scheduler accumulates one bitmask per node and delivers
// everything when [Scheduler.Flush] runs, so a multi-step reconnect
// produces one notification per affected node instead of one per internal
// step.
//
// The coordinator flushes at the end of each of its public entry points.
// Callers that need synchronous feedback in between flush explicitly.
type Scheduler struct {
	pending map[Node]ChangeFlags
	order   []Node
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[Node]ChangeFlags)}
}

// Schedule merges flags into the node's pending bitmask. First-time nodes
// keep their position in delivery order.
func (s *Scheduler) Schedule(n Node, flags ChangeFlags) {
	if flags == 0 {
		return
	}
	if _, ok := s.pending[n]; !ok {
		s.order = append(s.order, n)
	}
	s.pending[n] |= flags
}

// Pending returns the number of nodes with undelivered notifications.
func (s *Scheduler) Pending() int { return len(s.pending) }

// Flush delivers every pending notification in first-scheduled order.
// Notifications scheduled by listeners during delivery join a follow-up
// batch drained before Flush returns.
func (s *Scheduler) Flush() {
	for len(s.pending) > 0 {
		pending, order := s.pending, s.order
		s.pending = make(map[Node]ChangeFlags)
		s.order = nil
		for _, n := range order {
			n.base().deliverChange(pending[n])
		}
	}
}
