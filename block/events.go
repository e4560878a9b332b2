package block

import "github.com/ledgerforge/corechain/events"

// ProjectSigned derives the "validating" event stream for a freshly
// signed block: one Validating event per accepted
// transaction, then one per rejected transaction, then one for the
// block itself, each in the block's own ordering.
func ProjectSigned(vs ValidSigned) []events.Event {
	out := make([]events.Event, 0, len(vs.accepted)+len(vs.rejected)+1)
	for _, tx := range vs.accepted {
		out = append(out, events.Event{
			Entity: events.EntityTransaction,
			Status: events.StatusValidating,
			Hash:   tx.Hash(),
		})
	}
	for _, r := range vs.rejected {
		out = append(out, events.Event{
			Entity: events.EntityTransaction,
			Status: events.StatusValidating,
			Hash:   r.Tx.Hash(),
		})
	}
	out = append(out, events.Event{
		Entity: events.EntityBlock,
		Status: events.StatusValidating,
		Hash:   vs.Hash().Raw(),
	})
	return out
}

// ProjectCommitted derives the "committed"/"rejected" event stream for a
// committed block: one Committed event per accepted
// transaction, one Rejected event (carrying its reason) per rejected
// transaction, then one Committed event for the block itself.
func ProjectCommitted(cm Committed) []events.Event {
	out := make([]events.Event, 0, len(cm.accepted)+len(cm.rejected)+1)
	for _, tx := range cm.accepted {
		out = append(out, events.Event{
			Entity: events.EntityTransaction,
			Status: events.StatusCommitted,
			Hash:   tx.Hash(),
		})
	}
	for _, r := range cm.rejected {
		out = append(out, events.Event{
			Entity: events.EntityTransaction,
			Status: events.StatusRejected,
			Hash:   r.Tx.Hash(),
			Reason: r.Reason,
		})
	}
	out = append(out, events.Event{
		Entity: events.EntityBlock,
		Status: events.StatusCommitted,
		Hash:   cm.Hash().Raw(),
	})
	return out
}
