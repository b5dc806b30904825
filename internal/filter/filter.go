// Package filter selects the subset of tasks shown for a view mode.
package filter

import "github.com/BuzzLyutic/tasklist/internal/model"

// Select returns the tasks matching mode in their original order.
// The input slice is never modified and the result never aliases it.
func Select(tasks []model.Task, mode model.Mode) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if mode.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Count is len(Select(tasks, mode)) without the allocation.
func Count(tasks []model.Task, mode model.Mode) int {
	n := 0
	for _, t := range tasks {
		if mode.Matches(t) {
			n++
		}
	}
	return n
}

// Remaining counts incomplete tasks.
func Remaining(tasks []model.Task) int {
	return Count(tasks, model.ModeActive)
}
