package notify

// Notifier is the page-facing shorthand over a Queue. Every helper uses the
// queue's default TTL.
type Notifier struct {
	q *Queue
}

// NewNotifier wraps a queue.
func NewNotifier(q *Queue) Notifier {
	return Notifier{q: q}
}

func (n Notifier) Success(title, message string) Entry {
	return n.q.Push(SeveritySuccess, title, message, n.q.DefaultTTL())
}

func (n Notifier) Error(title, message string) Entry {
	return n.q.Push(SeverityError, title, message, n.q.DefaultTTL())
}

func (n Notifier) Warning(title, message string) Entry {
	return n.q.Push(SeverityWarning, title, message, n.q.DefaultTTL())
}

func (n Notifier) Info(title, message string) Entry {
	return n.q.Push(SeverityInfo, title, message, n.q.DefaultTTL())
}
