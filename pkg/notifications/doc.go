// Package notifications queues short user-visible notices per browser
// session. A notice is shown once: the next rendered page drains the queue.
//
// The package has two layers:
//
//   - Storage: a per-session FIFO queue (memory or redis)
//   - Manager: stamps ids and timestamps, stores, then hands the notice to an
//     optional Deliverer (best effort)
//
// Basic usage:
//
//	notices := notifications.NewManager(notifications.NewMemoryStorage())
//	_ = notices.Error(ctx, sid, "Session expired. Please login again.")
//
//	pending, _ := notices.Pending(ctx, sid) // drained
package notifications
