package content

// Progress returns the completion percentage for a learner:
// timeCurrent / totalTimeLimit * 100, clamped so it never goes negative.
// A course with no timed content reports 0.
func Progress(timeCurrent, totalTimeLimit int) float64 {
	if totalTimeLimit <= 0 || timeCurrent <= 0 {
		return 0
	}
	return float64(timeCurrent) / float64(totalTimeLimit) * 100
}

// applyCompletion credits a completed item's time to the enrollment and
// recomputes progress against the course's current total.
func applyCompletion(e *Enrollment, itemID string, timeLimit, totalTimeLimit int) {
	for _, done := range e.CompletedItems {
		if done == itemID {
			return
		}
	}
	e.CompletedItems = append(e.CompletedItems, itemID)
	e.TimeCurrent += timeLimit
	e.Progress = Progress(e.TimeCurrent, totalTimeLimit)
}

// removeCompletion reverses applyCompletion when a completed item is
// deleted from the course. timeCurrent is clamped at zero.
func removeCompletion(e *Enrollment, itemID string, timeLimit, totalTimeLimit int) bool {
	idx := -1
	for i, done := range e.CompletedItems {
		if done == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Item was never completed; progress still shifts because the
		// course total changed.
		old := e.Progress
		e.Progress = Progress(e.TimeCurrent, totalTimeLimit)
		return old != e.Progress
	}
	e.CompletedItems = append(e.CompletedItems[:idx], e.CompletedItems[idx+1:]...)
	e.TimeCurrent -= timeLimit
	if e.TimeCurrent < 0 {
		e.TimeCurrent = 0
	}
	e.Progress = Progress(e.TimeCurrent, totalTimeLimit)
	return true
}
