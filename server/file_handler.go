package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"syscall"

	"ftp2http/core/fsview"
	"ftp2http/core/stream"
	"ftp2http/logger"
)

// copyBufSize 流式转发的缓冲区大小，数据边收边发，从不缓冲整个文件。
const copyBufSize = 256 * 1024

// FileHandler 流式网关：把客户端的字节区间请求映射到远端
// 下载原语并转发数据流。每个请求独占一条远端会话，无论从
// 哪条路径退出，会话都恰好释放一次。
type FileHandler struct {
	dial storeFactory
}

// NewFileHandler 创建流式网关处理器
func NewFileHandler(dial storeFactory) *FileHandler {
	return &FileHandler{dial: dial}
}

// ServeHTTP 处理 GET /file?path= 请求
func (h *FileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("path")
	if filePath == "" {
		http.Error(w, "File path not specified.", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	client, err := h.dial(ctx)
	if err != nil {
		logger.Error("ftp connection failed",
			logger.String("path", filePath),
			logger.ErrorField(err))
		http.Error(w, "FTP connection failed", http.StatusBadGateway)
		return
	}

	// 释放幂等，取消监视和 defer 可以安全地各自触发一次
	release := func() {
		if err := client.Close(); err != nil {
			logger.Warn("release ftp connection",
				logger.String("path", filePath),
				logger.ErrorField(err))
		}
	}
	defer release()

	// 带外取消：消费端断开时立刻关闭远端会话，
	// 让阻塞中的上游读取直接返回，而不是等它自己醒来。
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			release()
		case <-watchDone:
		}
	}()

	// 大小查询失败按 0 处理：部分远端对目录和特殊文件拒绝 SIZE，
	// 此时退化为不支持区间的整流传输，而不是中断请求。
	var total uint64
	if size, err := client.Size(filePath); err != nil {
		logger.Debug("size query failed, falling back to unbounded stream",
			logger.String("path", filePath),
			logger.ErrorField(err))
	} else if size > 0 {
		total = uint64(size)
	}

	rng := stream.Resolve(r.Header.Get("Range"), total)

	body, err := client.Fetch(filePath, rng.Start)
	if err != nil {
		if isConsumerGone(ctx, err) {
			return
		}
		logger.Error("ftp retrieve failed",
			logger.String("path", filePath),
			logger.ErrorField(err))
		http.Error(w, "File display error", http.StatusBadGateway)
		return
	}

	h.writeHeaders(w, filePath, rng)
	h.pipe(ctx, w, body, filePath, rng)
}

// writeHeaders 在第一个数据字节之前写出响应头。
func (h *FileHandler) writeHeaders(w http.ResponseWriter, filePath string, rng stream.ResolvedRange) {
	fileName := path.Base(filePath)
	header := w.Header()
	header.Set("Content-Type", fsview.MimeType(fileName))
	header.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", fileName))

	if rng.Partial {
		header.Set("Content-Range", rng.ContentRange())
		header.Set("Accept-Ranges", "bytes")
		header.Set("Content-Length", strconv.FormatUint(rng.Length(), 10))
		w.WriteHeader(http.StatusPartialContent)
		return
	}

	if rng.Total == 0 {
		// 大小未知，明确告知不支持区间请求，长度交给分块传输
		header.Set("Accept-Ranges", "none")
	} else {
		header.Set("Accept-Ranges", "bytes")
		header.Set("Content-Length", strconv.FormatUint(rng.Length(), 10))
	}
	w.WriteHeader(http.StatusOK)
}

// pipe 把上游数据流转发给消费端。响应头已经发出，此后的失败
// 只能记日志，响应无法重新协商。消费端先断开不算错误。
func (h *FileHandler) pipe(ctx context.Context, w http.ResponseWriter, body io.Reader, filePath string, rng stream.ResolvedRange) {
	src := body
	if rng.Total > 0 {
		src = io.LimitReader(body, int64(rng.Length()))
	}

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, copyBufSize)
	var written uint64

	for {
		select {
		case <-ctx.Done():
			logger.Debug("stream cancelled by consumer",
				logger.String("path", filePath),
				logger.Uint64("written", written))
			return
		default:
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				if !isConsumerGone(ctx, writeErr) {
					logger.Error("write to consumer failed",
						logger.String("path", filePath),
						logger.Uint64("written", written),
						logger.ErrorField(writeErr))
				}
				return
			}
			written += uint64(n)
			if flusher != nil {
				flusher.Flush()
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				logger.Debug("stream complete",
					logger.String("path", filePath),
					logger.Uint64("written", written))
				return
			}
			if isConsumerGone(ctx, readErr) {
				return
			}
			// 真正的上游中断，响应已经在途，只能截断
			logger.Error("upstream stream failed",
				logger.String("path", filePath),
				logger.Uint64("written", written),
				logger.ErrorField(readErr))
			return
		}
	}
}

// isConsumerGone 判断错误是否可归因于消费端已经断开。
// 消费端断开触发的取消会把远端会话关掉，之后上游读取报
// "use of closed network connection"，同样归入这一类。
func isConsumerGone(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset by peer")
}
