package pathsec

import "errors"

var (
	// ErrInvalidInput 文件名或基础目录为空、无法使用，或清洗后只剩下点号。
	ErrInvalidInput = errors.New("invalid input")

	// ErrAccessDenied 拼接后的路径逃逸了允许的目录（安全事件，不应重试）。
	ErrAccessDenied = errors.New("access denied")
)
