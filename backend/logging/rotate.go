package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// rotate 把非空的旧日志改名为带时间戳的文件，并清理超过 retain 的历史文件。
//
//	data/runtime/app.log -> data/runtime/app-20260116-235959.log
func rotate(path string, retain time.Duration, now time.Time) error {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	st, err := os.Stat(path)
	switch {
	case err == nil && st.Size() > 0:
		if err := os.Rename(path, freeRotatedName(dir, stem, ext, now)); err != nil {
			return fmt.Errorf("rotate %s: %w", path, err)
		}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return err
	}

	if retain <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	cutoff := now.Add(-retain)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, stem+"-") || !strings.HasSuffix(name, ext) {
			continue
		}
		if info, err := e.Info(); err == nil && info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
	return nil
}

// freeRotatedName 同一秒内多次启动时追加序号
func freeRotatedName(dir, stem, ext string, now time.Time) string {
	ts := now.Format("20060102-150405")
	name := filepath.Join(dir, stem+"-"+ts+ext)
	for i := 1; ; i++ {
		if _, err := os.Lstat(name); errors.Is(err, fs.ErrNotExist) {
			return name
		}
		name = filepath.Join(dir, fmt.Sprintf("%s-%s-%d%s", stem, ts, i, ext))
	}
}
