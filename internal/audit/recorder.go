package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/fentz26/veritas/internal/models"
)

// Recorder emits provenance decision records for state-producing actions.
// Records go to the logger only; nothing is persisted.
type Recorder struct {
	logger *log.Logger
	now    func() time.Time
}

// NewRecorder creates a new recorder. A nil logger uses the standard logger.
func NewRecorder(logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{logger: logger, now: time.Now}
}

// Record writes an entry for an action and returns it.
func (r *Recorder) Record(action string, inputs interface{}, outcome, artifact, details string) *models.AuditEntry {
	entry := &models.AuditEntry{
		Action:     action,
		InputsHash: HashInputs(inputs),
		Outcome:    outcome,
		Artifact:   artifact,
		Details:    details,
		Timestamp:  r.now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		r.logger.Printf("audit: %s %s (marshal error: %v)", action, outcome, err)
		return entry
	}
	r.logger.Printf("audit: %s", data)
	return entry
}
