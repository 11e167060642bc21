package routing

import "errors"

var (
	// ErrNotFound 键不存在或已过期
	ErrNotFound = errors.New("routing: not found")
)
