package ner

import "errors"

// errModelLoadFailed is returned when a caller waited on a concurrent load
// that ultimately failed (the loading goroutine recorded no model).
var errModelLoadFailed = errors.New("ner: model load failed")
