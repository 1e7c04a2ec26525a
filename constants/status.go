package constants

// RunOutcome is the terminal state stored for each verification run.
type RunOutcome string

// Stable values (store these exact strings in DB).
const (
	RunOutcomeValid    RunOutcome = "VALID"    // every field present
	RunOutcomeInvalid  RunOutcome = "INVALID"  // soft failure, some fields empty
	RunOutcomeMismatch RunOutcome = "MISMATCH" // label differs from requested type
	RunOutcomeRejected RunOutcome = "REJECTED" // client error before the pipeline ran
	RunOutcomeFailed   RunOutcome = "FAILED"   // conversion, upstream or parse failure
)
