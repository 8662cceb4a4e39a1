package pathsec

import (
	"os"
	"path/filepath"
	"strings"
)

// IsContained 判断 targetPath 是否等于 baseDir 或位于其之下。
//
// 只做词法解析（Abs + Clean），不访问文件系统，也不解析符号链接。
// 前缀比较必须带上分隔符，否则 /tmp/up 会被误认为包含 /tmp/upload-evil。
func IsContained(targetPath, baseDir string) bool {
	if targetPath == "" || baseDir == "" {
		return false
	}
	target, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return false
	}
	if target == base {
		return true
	}

	prefix := base
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	return strings.HasPrefix(target, prefix)
}
