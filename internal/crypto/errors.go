package crypto

import "fmt"

// DecryptError reports any failure to turn a token back into payload bytes:
// bad encoding, truncation, authentication failure or a broken compressed body.
type DecryptError struct {
	Op  string
	Err error
}

func (e *DecryptError) Error() string {
	return fmt.Sprintf("decrypt token: %s: %v", e.Op, e.Err)
}

func (e *DecryptError) Unwrap() error { return e.Err }

func decryptErr(op string, err error) error {
	return &DecryptError{Op: op, Err: err}
}
