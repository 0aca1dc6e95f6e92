package domain

import "time"

// ControlEventKind enumerates the messages carried by the live control channel.
type ControlEventKind string

const (
	// EventSettingsChanged carries the new quiz_settings row.
	EventSettingsChanged ControlEventKind = "settings_changed"
	// EventResultInserted carries a freshly persisted quiz result.
	EventResultInserted ControlEventKind = "result_inserted"
	// EventResultsCleared signals a bulk delete of quiz_results.
	EventResultsCleared ControlEventKind = "results_cleared"
)

// ControlEvent is one message on the live control channel.
type ControlEvent struct {
	Kind     ControlEventKind `json:"kind"`
	Settings *QuizSettings    `json:"settings,omitempty"`
	Result   *QuizResult      `json:"result,omitempty"`
	At       time.Time        `json:"at"`
}

// SettingsEvent builds a settings_changed event.
func SettingsEvent(settings QuizSettings, at time.Time) ControlEvent {
	return ControlEvent{Kind: EventSettingsChanged, Settings: &settings, At: at}
}

// ResultEvent builds a result_inserted event.
func ResultEvent(result QuizResult, at time.Time) ControlEvent {
	return ControlEvent{Kind: EventResultInserted, Result: &result, At: at}
}
