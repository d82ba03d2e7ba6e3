package bloom

import "errors"

// ErrCorrupt marks a bloom filter sidecar that failed to decode.
var ErrCorrupt = errors.New("bloom: corrupt sidecar")
