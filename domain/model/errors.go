package model

import "errors"

// ErrInvalidCell is returned when a wire value cannot be decoded into a cell
var ErrInvalidCell = errors.New("invalid cell value")
