package server

import (
	"net/http"
	"path"

	"ftp2http/core/fsview"
	"ftp2http/logger"
	"ftp2http/storage"
)

// BrowseHandler 目录浏览页面
type BrowseHandler struct {
	dial     storeFactory
	ftpLabel string // 页面上展示的 host:port
}

// NewBrowseHandler 创建目录浏览处理器
func NewBrowseHandler(dial storeFactory, ftpLabel string) *BrowseHandler {
	return &BrowseHandler{dial: dial, ftpLabel: ftpLabel}
}

// entryView 列表页单行数据
type entryView struct {
	Name     string
	Path     string
	IsDir    bool
	Playable bool
	SizeText string
	DateText string
}

// browseView 列表页数据
type browseView struct {
	Host       string
	Path       string
	ParentPath string
	Entries    []entryView
}

// ServeHTTP 处理 GET /?path= 请求
func (h *BrowseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	dirPath := r.URL.Query().Get("path")
	if dirPath == "" {
		dirPath = "/"
	}

	entries, err := h.listDir(r, dirPath)
	if err != nil {
		logger.Error("directory listing failed",
			logger.String("path", dirPath),
			logger.ErrorField(err))
		renderError(w, http.StatusInternalServerError, err.Error())
		return
	}

	fsview.SortEntries(entries)

	view := &browseView{
		Host:    h.ftpLabel,
		Path:    dirPath,
		Entries: make([]entryView, 0, len(entries)),
	}
	if dirPath != "/" {
		view.ParentPath = path.Dir(dirPath)
	}

	for _, entry := range entries {
		row := entryView{
			Name:     entry.Name,
			Path:     entry.Path,
			IsDir:    entry.IsDir,
			DateText: entry.Time.Local().Format("2006-01-02 15:04:05"),
		}
		if entry.IsDir {
			row.SizeText = "-"
		} else {
			row.SizeText = fsview.FormatSize(entry.Size)
			row.Playable = fsview.Playable(entry.Name)
		}
		view.Entries = append(view.Entries, row)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := browseTmpl.Execute(w, view); err != nil {
		logger.Error("render listing failed", logger.ErrorField(err))
	}
}

// listDir 用一条独立会话拉取目录列表，渲染前即释放。
func (h *BrowseHandler) listDir(r *http.Request, dirPath string) ([]storage.Entry, error) {
	client, err := h.dial(r.Context())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("release ftp connection",
				logger.String("path", dirPath),
				logger.ErrorField(err))
		}
	}()

	return client.List(dirPath)
}

// renderError 输出简单的错误页面
func renderError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	errorTmpl.Execute(w, message)
}
