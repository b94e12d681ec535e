// Package storage 提供存档槽存储：内存、SQLite 和 MongoDB。
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSlotNotFound = errors.New("存档槽不存在")
	ErrEmptySlotKey = errors.New("存档槽名称不能为空")
)

// SlotStore 存档槽存储，每个槽位保存一份存档文档
type SlotStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Keys(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options 存储配置
type Options struct {
	Driver        string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
}

// Open 根据配置打开存储
func Open(ctx context.Context, opts Options) (SlotStore, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(opts.SQLitePath)
	case "mongo":
		return OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("未知的存储驱动: %q", opts.Driver)
	}
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptySlotKey
	}
	return key, nil
}
