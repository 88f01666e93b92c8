// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskcli/internal/task"
)

// FormatTask formats a single task line.
// Format: "{ID:>4}  [{x| }]  {TITLE}\n"
func FormatTask(w io.Writer, t task.Task) {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	fmt.Fprintf(w, "%4d  [%s]  %s\n", t.ID, mark, normalizeTitle(t.Title))
}

// FormatTaskDetail formats a task with its description, for the show
// command.
func FormatTaskDetail(w io.Writer, t task.Task) {
	FormatTask(w, t)
	desc := strings.TrimSpace(t.Description)
	if desc != "" {
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "      %s\n", line)
		}
	}
}

// FormatTasks formats a whole collection in server order.
func FormatTasks(w io.Writer, tasks []task.Task) {
	for _, t := range tasks {
		FormatTask(w, t)
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
