package native

import "fmt"

// Code is the signed result code every token service call returns. CodeOK is
// the single success value; CodeCallFailed is the sentinel for a call that
// never reached the service at all.
type Code int32

const (
	CodeOK         Code = 0
	CodeCallFailed Code = -1
)

const (
	CodeInvalidConfig Code = iota + 1
	CodeInvalidToken
	CodeInvalidAccount
	CodeInvalidSerial
	CodeMissingKey
	CodeKeyNotAuthorized
	CodeTokenPaused
	CodeTokenDeleted
	CodeAccountFrozen
	CodeNoKYC
	CodeNotApproved
	CodeWrongOwner
	CodeMetadataTooLong
	CodeInsufficientPayment
	CodeCannotWipeTreasury
)

// CallError is a failed token service call: either the call was delivered and
// the service answered with a non-success code, or the call itself broke and
// the code is CodeCallFailed. Op names the attempted operation so callers can
// tell a rejected business rule from broken plumbing.
type CallError struct {
	Op   string
	Code Code
}

func (e *CallError) Error() string {
	return fmt.Sprintf("token service %s failed with code %d", e.Op, e.Code)
}
