package classify

import "errors"

// ErrUnavailable indicates the classifier could not produce a verdict
// (timeout, malformed response, upstream failure). Never fatal to a run.
var ErrUnavailable = errors.New("classifier unavailable")
