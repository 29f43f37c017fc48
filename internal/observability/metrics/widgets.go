package metrics

// ListFetch records a filtered list fetch.
func ListFetch(view, status string) {
	if !enabled {
		return
	}
	listFetchTotal.WithLabelValues(view, status).Inc()
}

// PublishWorkflow records the final state of a publish workflow.
func PublishWorkflow(action, state, reason string) {
	if !enabled {
		return
	}
	publishWorkflowTotal.WithLabelValues(action, state, reason).Inc()
}

// MediaUpload records one file upload.
func MediaUpload(status string) {
	if !enabled {
		return
	}
	uploadTotal.WithLabelValues(status).Inc()
}

// ContactCreate records a contact submission outcome.
func ContactCreate(result string) {
	if !enabled {
		return
	}
	contactCreateTotal.WithLabelValues(result).Inc()
}

// StatusUpdate records a sub-status update.
func StatusUpdate(status string) {
	if !enabled {
		return
	}
	statusUpdateTotal.WithLabelValues(status).Inc()
}

// SessionOpened increments the live session gauge of a widget.
func SessionOpened(widget string) {
	if !enabled {
		return
	}
	activeSessions.WithLabelValues(widget).Inc()
}

// SessionClosed decrements the live session gauge of a widget.
func SessionClosed(widget string) {
	if !enabled {
		return
	}
	activeSessions.WithLabelValues(widget).Dec()
}
