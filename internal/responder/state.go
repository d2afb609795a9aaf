package responder

import (
	"encoding/json"
	"fmt"
	"os"
)

const stateFile = "responder-state.json"

// State keeps track of which messages have already been handled.
// The key is the Gmail message ID, and the value is the disposition: the
// draft ID when a reply was drafted, or "skipped" when none was needed.
type State map[string]string

const dispositionSkipped = "skipped"

// loadState loads the responder state from the JSON file.
func loadState() (State, error) {
	data, err := os.ReadFile(stateFile)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return state, nil
}

// saveState saves the current responder state to the JSON file.
func (s State) save() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal responder state: %w", err)
	}
	return os.WriteFile(stateFile, data, 0644)
}
