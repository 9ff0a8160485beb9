// Package task defines the normalized task records exchanged between the
// origin and mirror systems, plus the note tag linking a mirror task back
// to the origin task it reflects.
package task

// TypeTodo is the mirror task type the reconciler operates on.
const TypeTodo = "todo"

// OriginTask is a task as reported by the origin system, the authoritative
// source of due-today work. The engine only ever reads origin tasks and
// closes them; it never creates or edits them.
type OriginTask struct {
	ID          string
	Content     string
	Description string

	// DueDate is the calendar date (YYYY-MM-DD) the task is due,
	// empty when the task has no due date.
	DueDate string

	Completed bool
}

// DueOn reports whether the task is due exactly on the given calendar date.
// Overdue tasks (due before the date) are deliberately not a match.
func (t OriginTask) DueOn(date string) bool {
	return t.DueDate != "" && t.DueDate == date
}

// MirrorTask is a todo as reported by the mirror system. Notes may carry an
// embedded origin tag, which is the only durable cross-system link.
type MirrorTask struct {
	ID        string
	Text      string
	Notes     string
	Type      string
	Completed bool
}

// IsTodo reports whether the mirror task is of the todo type.
func (t MirrorTask) IsTodo() bool {
	return t.Type == TypeTodo
}

// OriginID returns the linked origin task ID parsed from the notes tag.
func (t MirrorTask) OriginID() (string, bool) {
	return ParseTag(t.Notes)
}
