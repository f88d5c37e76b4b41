package realtime

// Push message types delivered to subscribers. Every message carries a
// "type" discriminant so clients can route without reflection.
const (
	TypeFileChanged          = "file_changed"
	TypeGitStatusUpdate      = "git_status_update"
	TypeCompletionSuggestion = "completion_suggestion"
	TypeError                = "error"
	TypePong                 = "pong"
)

// FileChanged announces that a source file was reindexed.
type FileChanged struct {
	Type          string `json:"type"`
	Path          string `json:"path"`
	ChunksUpdated int    `json:"chunks_updated"`
}

// NewFileChanged builds a file_changed message.
func NewFileChanged(path string, chunks int) FileChanged {
	return FileChanged{Type: TypeFileChanged, Path: path, ChunksUpdated: chunks}
}

// GitFileStatus is one entry of a working-tree status payload.
type GitFileStatus struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Staged bool   `json:"staged"`
}

// GitStatusData is the payload of a git_status_update message.
type GitStatusData struct {
	Branch  string          `json:"branch"`
	Files   []GitFileStatus `json:"files"`
	IsClean bool            `json:"is_clean"`
}

// GitStatusUpdate announces that working-tree status changed.
type GitStatusUpdate struct {
	Type string        `json:"type"`
	Data GitStatusData `json:"data"`
}

// NewGitStatusUpdate builds a git_status_update message.
func NewGitStatusUpdate(data GitStatusData) GitStatusUpdate {
	return GitStatusUpdate{Type: TypeGitStatusUpdate, Data: data}
}

// CompletionSuggestion carries an inline completion back to a client.
type CompletionSuggestion struct {
	Type       string `json:"type"`
	Completion string `json:"completion"`
	MultiLine  bool   `json:"multi_line"`
}

// ErrorMessage reports a per-connection failure to one client.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewError builds an error message.
func NewError(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}

// CommandEnvelope is the frame sent to the host for one editor action.
type CommandEnvelope struct {
	Type      string `json:"type"` // always "editor_action"
	RequestID string `json:"request_id"`
	Action    string `json:"action"`
	Data      any    `json:"data"`
}

// HostResponse is an inbound frame from the host. Frames whose
// RequestID matches no pending request are dropped.
type HostResponse struct {
	RequestID string         `json:"request_id"`
	Result    map[string]any `json:"result"`
}
