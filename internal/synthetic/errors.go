package synthetic

import "errors"

// ErrInvalidConfig is returned for impossible generator settings.
var ErrInvalidConfig = errors.New("invalid synthetic config")
