package sections

import "errors"

var (
	// ErrMissingDistrict is returned by Assign in strict mode for a row whose
	// district fields are empty.
	ErrMissingDistrict = errors.New("polling table has no district")
	// ErrInvalidReference reports a malformed reference document.
	ErrInvalidReference = errors.New("invalid section reference")
)
