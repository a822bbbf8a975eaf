package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"ftp2http/config"

	"github.com/jlaffaye/ftp"
)

// ErrConnect 表示 FTP 连接或认证失败。
var ErrConnect = errors.New("ftp connect failed")

// dialTimeout 限制连接建立耗时，避免远端卡死拖住整个请求。
const dialTimeout = 10 * time.Second

// Entry 目录条目
type Entry struct {
	Name  string    `json:"name"`
	Path  string    `json:"path"`
	Size  uint64    `json:"size"`
	Time  time.Time `json:"date"`
	IsDir bool      `json:"isDirectory"`
}

// Client 封装一条已登录的 FTP 会话。每个请求独占一条会话，
// 不跨请求共享，也不做连接池。Close 幂等，重复调用是空操作。
type Client struct {
	conn *ftp.ServerConn

	mu       sync.Mutex
	transfer io.Closer // 当前打开的数据传输，至多一个

	closeOnce sync.Once
	closeErr  error
}

// Dial 新建并认证一条 FTP 会话。调用方失败时不得自动重试，
// 每个需要连接的请求只调用一次并把失败作为该次请求的错误上报。
func Dial(ctx context.Context, cfg *config.Config) (*Client, error) {
	conn, err := ftp.Dial(cfg.FTPAddr(),
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(dialTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	if err := conn.Login(cfg.FTPUser, cfg.FTPPassword); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("%w: login: %v", ErrConnect, err)
	}

	return &Client{conn: conn}, nil
}

// Size 查询文件字节大小。目录或特殊文件可能被远端拒绝。
func (c *Client) Size(p string) (int64, error) {
	return c.conn.FileSize(p)
}

// Fetch 从 offset 偏移处开始下载文件，返回数据流。
// 数据流由 Close 统一回收，调用方不需要单独关闭。
func (c *Client) Fetch(p string, offset uint64) (io.ReadCloser, error) {
	resp, err := c.conn.RetrFrom(p, offset)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.transfer = resp
	c.mu.Unlock()
	return resp, nil
}

// List 列出目录内容，过滤 "." 和 ".."。
func (c *Client) List(dir string) ([]Entry, error) {
	items, err := c.conn.List(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.Name == "." || item.Name == ".." {
			continue
		}
		entries = append(entries, Entry{
			Name:  item.Name,
			Path:  path.Join(dir, item.Name),
			Size:  item.Size,
			Time:  item.Time,
			IsDir: item.Type == ftp.EntryTypeFolder,
		})
	}
	return entries, nil
}

// Close 释放会话，恰好执行一次。先关闭未完成的数据传输再退出会话，
// 传输中途关闭会让阻塞中的读取立即返回。
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		transfer := c.transfer
		c.transfer = nil
		c.mu.Unlock()

		if transfer != nil {
			_ = transfer.Close()
		}
		c.closeErr = c.conn.Quit()
	})
	return c.closeErr
}
