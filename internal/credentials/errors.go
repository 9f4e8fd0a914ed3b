package credentials

import "errors"

// ErrNotFound is returned by a Persister that holds no value for a credential.
var ErrNotFound = errors.New("credential not found")
