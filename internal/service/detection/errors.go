package detection

import "fmt"

// DecodeError reports a frame payload that could not be decoded into an image.
// The frame is skipped and nothing is published for it.
type DecodeError struct {
	FrameID string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame %q: %v", e.FrameID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// BackendError reports a failure of the detection model. It is fatal for the node.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("detection backend: %v", e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// DisplayError reports a failure to render the overlay preview.
type DisplayError struct {
	Err error
}

func (e *DisplayError) Error() string {
	return fmt.Sprintf("display: %v", e.Err)
}

func (e *DisplayError) Unwrap() error { return e.Err }
