package logging

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"time"
)

// maxTailChunk 单次最多返回的字节数
const maxTailChunk int64 = 512 * 1024

// TailSnapshot /app/logs 的响应：[From, To) 为本次返回区间，End 为当前文件大小。
// Lost 表示 since 超出文件末尾（日志被截断或进程重启），已从头重新读取。
type TailSnapshot struct {
	Pid       int    `json:"pid,omitempty"`
	StartedAt string `json:"startedAt,omitempty"`
	Path      string `json:"path,omitempty"`

	From int64  `json:"from"`
	To   int64  `json:"to"`
	End  int64  `json:"end"`
	Lost bool   `json:"lost"`
	Text string `json:"text"`

	Error string `json:"error,omitempty"`
}

// TailSince 从 since 偏移读取日志文件的增量内容
func TailSince(path string, since int64, startedAt time.Time) TailSnapshot {
	snap := TailSnapshot{Pid: os.Getpid(), Path: path}
	if !startedAt.IsZero() {
		snap.StartedAt = startedAt.Format(time.RFC3339Nano)
	}
	if path == "" {
		return snap
	}
	if err := readChunk(path, since, maxTailChunk, &snap); err != nil {
		snap.Error = err.Error()
	}
	return snap
}

func readChunk(path string, since, limit int64, snap *TailSnapshot) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	snap.End = st.Size()

	if since < 0 {
		since = 0
	}
	if since > snap.End {
		since = 0
		snap.Lost = true
	}
	snap.From, snap.To = since, since

	n := snap.End - since
	if n <= 0 {
		return nil
	}
	if n > limit {
		n = limit
	}
	buf := make([]byte, n)
	read, err := f.ReadAt(buf, since)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	snap.To = since + int64(read)
	snap.Text = string(buf[:read])
	return nil
}
