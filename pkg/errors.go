package pkg

import "errors"

var errInvalidLength = errors.New("length must be positive")
