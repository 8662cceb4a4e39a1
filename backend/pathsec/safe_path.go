package pathsec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// BuildSafePath 将不可信的 userPath 转换为 baseDir 下经过校验的绝对路径。
//
// 不访问文件系统：文件是否存在、是否可读由调用方负责。
func BuildSafePath(baseDir, userPath string) (string, error) {
	if strings.TrimSpace(baseDir) == "" {
		return "", fmt.Errorf("%w: base directory is required", ErrInvalidInput)
	}
	if userPath == "" {
		return "", fmt.Errorf("%w: path is required", ErrInvalidInput)
	}

	name, err := Sanitize(userPath)
	if err != nil {
		return "", err
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("%w: resolve base directory: %v", ErrInvalidInput, err)
	}
	candidate := filepath.Join(base, name)

	// 清洗后只剩单段文件名，这里应恒成立
	if !IsContained(candidate, base) {
		return "", fmt.Errorf("%w: path outside permitted directory", ErrAccessDenied)
	}
	return candidate, nil
}
