package fetch

import "errors"

var (
	// ErrUnexpectedStatus is wrapped by TransportErrors for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrBodyTooLarge is returned when a response exceeds the body limit.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")

	// ErrUnsupportedScheme is returned by the browser transport for schemes
	// other than http and https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)
