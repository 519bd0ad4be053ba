package domain

import (
	"fmt"
	"sort"
)

// PositionChange is a single staged position write produced by PlanReorder.
type PositionChange struct {
	TaskID   string
	Position int
}

// NormalizeOrder parses every requested identifier and rejects duplicates.
// Nothing is returned unless the whole sequence is valid.
func NormalizeOrder(raw []string) ([]string, error) {
	ids := make([]string, 0, len(raw))
	seen := make(map[string]int, len(raw))
	for i, value := range raw {
		id, ok := ParseTaskID(value)
		if !ok {
			return nil, FieldError(fmt.Sprintf("order[%d]", i), fmt.Sprintf("%q is not a valid task id", value))
		}
		if first, dup := seen[id]; dup {
			return nil, FieldError(fmt.Sprintf("order[%d]", i), fmt.Sprintf("task %s already listed at order[%d]", id, first))
		}
		seen[id] = i
		ids = append(ids, id)
	}
	return ids, nil
}

// PlanReorder computes the writes needed so that order[i] ends up at position i.
// current must hold every task of a single owner. Tasks already at their target
// position produce no change; tasks absent from order are left alone. Any id
// that is not in current aborts the plan.
func PlanReorder(current []Task, order []string) ([]PositionChange, error) {
	byID := make(map[string]*Task, len(current))
	for i := range current {
		byID[current[i].ID] = &current[i]
	}

	var changes []PositionChange
	for i, id := range order {
		task, ok := byID[id]
		if !ok {
			return nil, FieldError(fmt.Sprintf("order[%d]", i), fmt.Sprintf("task %s not found or not owned by user", id))
		}
		if task.Position == i {
			continue
		}
		changes = append(changes, PositionChange{TaskID: id, Position: i})
	}
	return changes, nil
}

// SortByPosition orders tasks by position, then creation time, then id.
func SortByPosition(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
