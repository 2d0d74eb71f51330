package model

import "github.com/pkg/errors"

// BadRequest is the single error kind the model reports: whatever went
// wrong, the caller sent something the model could not work with.
type BadRequest struct {
	Err error
}

func (e *BadRequest) Error() string {
	return e.Err.Error()
}

func (e *BadRequest) Unwrap() error {
	return e.Err
}

// catch turns any error into a BadRequest carrying its message.
func catch(err error) error {
	if err == nil {
		return nil
	}
	var br *BadRequest
	if errors.As(err, &br) {
		return err
	}
	return &BadRequest{Err: err}
}
