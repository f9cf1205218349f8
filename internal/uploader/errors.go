package uploader

import "errors"

// ErrUpstreamStatus indicates a non-2xx response in strict mode.
//
// Check with errors.Is():
//
//	if errors.Is(err, uploader.ErrUpstreamStatus) {
//	    // The server rejected a batch
//	}
var ErrUpstreamStatus = errors.New("uploader: upstream returned non-2xx status")
