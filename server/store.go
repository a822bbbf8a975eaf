package server

import (
	"context"
	"io"

	"ftp2http/config"
	"ftp2http/storage"
)

// remoteStore 抽象一条独占的远端文件会话，便于测试替换。
// 实现必须保证 Close 幂等。
type remoteStore interface {
	Size(path string) (int64, error)
	Fetch(path string, offset uint64) (io.ReadCloser, error)
	List(dir string) ([]storage.Entry, error)
	Close() error
}

// storeFactory 按需新建一条已认证的远端会话。
// 每个逻辑文件操作各自打开、各自关闭，失败不重试。
type storeFactory func(ctx context.Context) (remoteStore, error)

func newStoreFactory(cfg *config.Config) storeFactory {
	return func(ctx context.Context) (remoteStore, error) {
		return storage.Dial(ctx, cfg)
	}
}
