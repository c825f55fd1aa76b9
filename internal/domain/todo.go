package domain

// TodoStatus describes whether every process of a to-do is finished.
type TodoStatus string

// TodoStatus values.
const (
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

// Todo is a unit of work that tracks progress against the backlog names it consumed.
type Todo struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    TodoStatus `json:"status"`
	Progress  float64    `json:"progress"`
	Processes []Process  `json:"processes"`
}

// Process is the progress of one backlog inside a to-do.
type Process struct {
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
}

// Process returns a pointer to the process named backlog, or nil.
func (t *Todo) Process(backlog string) *Process {
	for i := range t.Processes {
		if t.Processes[i].Name == backlog {
			return &t.Processes[i]
		}
	}
	return nil
}

// Recompute derives overall progress and status from the processes.
func (t *Todo) Recompute() {
	if len(t.Processes) == 0 {
		t.Processes = []Process{}
		t.Progress = 0
		t.Status = TodoInProgress
		return
	}
	var total float64
	done := true
	for _, p := range t.Processes {
		total += p.Progress
		if p.Progress < 100 {
			done = false
		}
	}
	t.Progress = round2(total / float64(len(t.Processes)))
	t.Status = TodoInProgress
	if done {
		t.Status = TodoCompleted
	}
}

// Completed reports whether the server marked the to-do completed.
func (t Todo) Completed() bool {
	return t.Status == TodoCompleted
}
