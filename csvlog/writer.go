package csvlog

import (
	"os"
	"strings"
	"sync"
)

// Writer 追加式 CSV 输出：每次写一行，表头在进程内恰好写一次；
// 打开失败不消耗表头机会，下一次成功写入仍会先补表头。
// 写失败不重试、不向上传播，调用方记日志后继续。
type Writer struct {
	path   string
	header string

	mu         sync.Mutex
	headerDone bool
}

// NewWriter 绑定输出路径与表头，不立即创建文件。
func NewWriter(path, header string) *Writer {
	return &Writer{path: path, header: header}
}

// Path 返回输出文件路径。
func (w *Writer) Path() string { return w.path }

// Append 打开文件追加一行。第一次成功打开时先写表头。
func (w *Writer) Append(fields ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if !w.headerDone {
		if _, err := f.WriteString(w.header + "\n"); err != nil {
			f.Close()
			return err
		}
		w.headerDone = true
	}
	_, werr := f.WriteString(strings.Join(fields, ",") + "\n")
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}
