package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wfunc/fate-dice/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lockRetries  = 30
	lockStaleAge = 5 * time.Minute
)

// acquireMigrationLock 获取迁移锁
func acquireMigrationLock(dbPath string) (*os.File, error) {
	lockPath := dbPath + ".migration.lock"

	for i := 0; i < lockRetries; i++ {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
		if err == nil {
			logger.Debug("获取迁移锁成功", zap.String("lock", lockPath))
			return lockFile, nil
		}

		if info, err := os.Stat(lockPath); err == nil {
			if time.Since(info.ModTime()) > lockStaleAge {
				logger.Warn("迁移锁文件过期，尝试删除", zap.String("lock", lockPath))
				os.Remove(lockPath)
				continue
			}
		} else if os.IsNotExist(err) {
			// 目录不存在时重试无意义
			if _, dirErr := os.Stat(filepath.Dir(lockPath)); os.IsNotExist(dirErr) {
				return nil, fmt.Errorf("数据库目录不存在: %s", filepath.Dir(lockPath))
			}
		}

		logger.Debug("等待迁移锁...", zap.Int("attempt", i+1))
		time.Sleep(1 * time.Second)
	}

	return nil, fmt.Errorf("无法获取迁移锁，可能有其他进程正在执行迁移")
}

// releaseMigrationLock 释放迁移锁
func releaseMigrationLock(lockFile *os.File) {
	if lockFile == nil {
		return
	}

	lockPath := lockFile.Name()
	lockFile.Close()
	os.Remove(lockPath)
	logger.Debug("释放迁移锁", zap.String("lock", lockPath))
}

// getDBPath 返回sqlite数据库文件路径，内存库和其他数据库返回空
func getDBPath(db *gorm.DB) string {
	if db == nil || db.Dialector.Name() != "sqlite" {
		return ""
	}

	sqlDB, err := db.DB()
	if err != nil {
		return ""
	}

	var seq int
	var name, file string
	if err := sqlDB.QueryRow("PRAGMA database_list").Scan(&seq, &name, &file); err != nil {
		return ""
	}
	return file
}

// CleanupStaleLocks 清理过期的锁文件
func CleanupStaleLocks() {
	patterns := []string{
		"./data/*.lock",
		"./*.lock",
	}

	for _, pattern := range patterns {
		matches, _ := filepath.Glob(pattern)
		for _, lockFile := range matches {
			if info, err := os.Stat(lockFile); err == nil {
				if time.Since(info.ModTime()) > 2*lockStaleAge {
					logger.Info("清理过期锁文件", zap.String("file", lockFile))
					os.Remove(lockFile)
				}
			}
		}
	}
}
