package launch

// FlowError categorizes an orchestration failure for the caller: a
// suggested HTTP status, the user-facing message, and the id of the
// already-created post when one exists (the resume affordance).
type FlowError struct {
	Status  int
	Message string
	PostID  string
	Err     error
}

func (e *FlowError) Error() string {
	return e.Message
}

func (e *FlowError) Unwrap() error {
	return e.Err
}
