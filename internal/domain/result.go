package domain

// SubmissionStage names one of the three independently-failing network
// stages composing a product submission.
type SubmissionStage string

const (
	StageBasicInfo SubmissionStage = "basic_info"
	StageMedia     SubmissionStage = "media"
	StageVariants  SubmissionStage = "variants"
)

type StageStatus string

const (
	StageIdle      StageStatus = "idle"
	StageInFlight  StageStatus = "in_flight"
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
)

// StageResult records how far one stage got. Message carries the opaque
// transport error for failed stages; the core does not classify further.
type StageResult struct {
	Stage   SubmissionStage `json:"stage"`
	Status  StageStatus     `json:"status"`
	Message string          `json:"message,omitempty"`
}

type SubmissionOutcome string

const (
	// OutcomeSuccess: every attempted stage persisted.
	OutcomeSuccess SubmissionOutcome = "success"
	// OutcomeDegraded: the base record exists but a later stage failed.
	// The caller must not re-run the base stage.
	OutcomeDegraded SubmissionOutcome = "degraded"
	// OutcomeFailed: nothing was persisted by this run.
	OutcomeFailed SubmissionOutcome = "failed"
	// OutcomeInvalid: validation blocked the run before any network call.
	OutcomeInvalid SubmissionOutcome = "invalid"
)

// ValidationError is one field-scoped business rule violation.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// SubmissionResult is the typed verdict of one pipeline run, replacing the
// original console's fire-and-forget callbacks and shared update flags.
type SubmissionResult struct {
	Outcome    SubmissionOutcome `json:"outcome"`
	ProductID  string            `json:"productId,omitempty"`
	Stages     []StageResult     `json:"stages"`
	Violations []ValidationError `json:"violations,omitempty"`
}

// Message renders the headline the UI layer shows as a notification.
func (r SubmissionResult) Message() string {
	switch r.Outcome {
	case OutcomeSuccess:
		return "saved"
	case OutcomeInvalid:
		if len(r.Violations) > 0 {
			return r.Violations[0].Error()
		}
		return "invalid draft"
	case OutcomeDegraded:
		msg := "created, but "
		for _, s := range r.Stages {
			if s.Status == StageFailed {
				return msg + string(s.Stage) + " stage failed"
			}
		}
		return msg + "a later stage failed"
	default:
		for _, s := range r.Stages {
			if s.Status == StageFailed {
				return string(s.Stage) + " stage failed: " + s.Message
			}
		}
		return "submission failed"
	}
}
