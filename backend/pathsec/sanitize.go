package pathsec

import (
	"fmt"
	"path"
	"strings"
)

// Sanitize 将用户提供的文件名清洗为安全的纯文件名。
//
// 步骤：反斜杠归一化，去除 "../"，取 basename，再按白名单逐字符替换。
// 结果只包含 [A-Za-z0-9._-]，且不会是空串或纯点号。
func Sanitize(rawName string) (string, error) {
	if rawName == "" {
		return "", fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}

	name := strings.ReplaceAll(rawName, `\`, "/")
	name = strings.ReplaceAll(name, "../", "")

	name = path.Base(name)
	if name == "/" || name == "." {
		// path.Base 对全分隔符返回 "/"，对空串返回 "."
		name = ""
	}

	name = strings.Map(replaceUnsafeRune, name)

	if name == "" || isDotsOnly(name) {
		return "", fmt.Errorf("%w: filename %q has no usable characters", ErrInvalidInput, rawName)
	}
	return name, nil
}

func replaceUnsafeRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	case r == '.', r == '-', r == '_':
		return r
	default:
		return '_'
	}
}

func isDotsOnly(name string) bool {
	return strings.Trim(name, ".") == ""
}
