package status

// ErrorCode is a numeric code to classify API errors in a stable way
type ErrorCode int

// Reserved ranges by domain:
//   0-999:     client/validation errors
//   1000-1999: internal errors
//   9000:      generic internal error

const (
	BadRequestBase    ErrorCode = 0
	InternalErrorBase ErrorCode = 1000
)

// client/validation errors start at 0
const (
	InvalidRequestBody ErrorCode = BadRequestBase + iota // 0
	MissingParams                                       // 1
	InvalidParams                                       // 2
	InvalidFile                                         // 3
	ChatNotFound                                        // 4
	DocumentNotFound                                    // 5
	EmptyQuestion                                       // 6
)

// internal errors start at 1000
const (
	StorageFailed     ErrorCode = InternalErrorBase + iota // 1000
	IngestFailed                                           // 1001
	QueryFailed                                            // 1002
	DatabaseFailed                                         // 1003
	VectorStoreFailed                                      // 1004
)

const (
	ErrorCodeInternal ErrorCode = 9000
)

// CodedError represents an error with an associated ErrorCode
type CodedError interface {
	error
	ErrorCode() ErrorCode
}

type codedError struct {
	code ErrorCode
	err  error
}

func (e codedError) Error() string        { return e.err.Error() }
func (e codedError) Unwrap() error        { return e.err }
func (e codedError) ErrorCode() ErrorCode { return e.code }

// New creates a new CodedError with the given code and underlying error
func New(code ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	return codedError{code: code, err: err}
}
