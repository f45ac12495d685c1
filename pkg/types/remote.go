package types

import "fmt"

// BusinessRejectionCode is the application-level error code used by the
// remote order service for business-rule rejections. Anything else is
// treated as a transport failure.
const BusinessRejectionCode = 200

// RemoteErrorData carries the structured payload of a remote rejection.
type RemoteErrorData struct {
	ExceptionType string `json:"exception_type"`
	DebugInfo     string `json:"debug"`
}

// RemoteError is the structured error returned by the remote order service.
type RemoteError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    RemoteErrorData `json:"data"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote order service: code %d: %s", e.Code, e.Message)
}

// IsBusinessRejection reports whether the error is a server-side validation
// failure rather than a connection problem.
func (e *RemoteError) IsBusinessRejection() bool {
	return e.Code == BusinessRejectionCode
}
