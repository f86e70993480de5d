package messages

import "fmt"

// Severity of a queued message.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the lower case name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "info"
}

// Message is a catalog key plus its format arguments.
type Message struct {
	Key      string
	Args     []any
	Severity Severity
}

// Queue collects messages in order, each distinct message once.
type Queue struct {
	items []Message
	seen  map[string]struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{seen: make(map[string]struct{})}
}

// Add queues a message unless one with the same key and arguments is
// already present.
func (q *Queue) Add(severity Severity, key string, args ...any) bool {
	id := fmt.Sprintf("%s%q", key, args)
	if _, dup := q.seen[id]; dup {
		return false
	}
	q.seen[id] = struct{}{}
	q.items = append(q.items, Message{Key: key, Args: args, Severity: severity})
	return true
}

// Messages returns the queued messages in insertion order.
func (q *Queue) Messages() []Message {
	return q.items
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	return len(q.items)
}

// Texts translates every message with c.
func (q *Queue) Texts(c *Catalog, lang string) []string {
	texts := make([]string, len(q.items))
	for i, m := range q.items {
		texts[i] = c.Text(lang, m.Key, m.Args...)
	}
	return texts
}
