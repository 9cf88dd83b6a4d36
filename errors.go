package cuimp

import "github.com/ZebulonRouseFrantzich/cuimp/internal/errs"

// Error kinds. Match them with errors.Is; the detailed types below are
// available through errors.As.
var (
	ErrUnsupportedDescriptor = errs.ErrUnsupportedDescriptor
	ErrDownloadFailed        = errs.ErrDownloadFailed
	ErrVerificationFailed    = errs.ErrVerificationFailed
	ErrInvalidProxyURL       = errs.ErrInvalidProxyURL
	ErrProcessFailed         = errs.ErrProcessFailed
	ErrTimeout               = errs.ErrTimeout
	ErrMalformedOutput       = errs.ErrMalformedOutput
	ErrDecodeFailed          = errs.ErrDecodeFailed
	ErrInvalidRequest        = errs.ErrInvalidRequest
)

type (
	UnsupportedError  = errs.UnsupportedError
	DownloadError     = errs.DownloadError
	VerificationError = errs.VerificationError
	ProxyError        = errs.ProxyError
	ProcessError      = errs.ProcessError
	TimeoutError      = errs.TimeoutError
	MalformedError    = errs.MalformedError
	DecodeError       = errs.DecodeError
)
