package pipeline

import "log"

// StepOutcome records what happened to one photo within a phase. A photo
// that could not be processed is skipped, never fatal to the run.
type StepOutcome struct {
	PhotoID string
	Skipped bool
	Err     error
}

// PhaseReport aggregates per-photo outcomes for one phase so the phase can
// be summarized in a single log line instead of a silent catch-and-continue.
type PhaseReport struct {
	Phase     string
	Attempted int
	Succeeded int
	Skipped   int
	Outcomes  []StepOutcome
}

func newPhaseReport(phase string) *PhaseReport {
	return &PhaseReport{Phase: phase}
}

func (r *PhaseReport) record(photoID string, err error) {
	r.Attempted++
	if err != nil {
		r.Skipped++
		r.Outcomes = append(r.Outcomes, StepOutcome{PhotoID: photoID, Skipped: true, Err: err})
		return
	}
	r.Succeeded++
	r.Outcomes = append(r.Outcomes, StepOutcome{PhotoID: photoID})
}

func (r *PhaseReport) log(jobID string) {
	log.Printf("pipeline: job %s phase %s done (%d ok, %d skipped, %d attempted)",
		jobID, r.Phase, r.Succeeded, r.Skipped, r.Attempted)
	for _, out := range r.Outcomes {
		if out.Skipped {
			log.Printf("pipeline: job %s phase %s skipped photo %s: %v", jobID, r.Phase, out.PhotoID, out.Err)
		}
	}
}
