package repository

import (
	"errors"

	"github.com/mattn/go-sqlite3"
	apperrors "github.com/wfunc/fate-dice/internal/errors"
	"gorm.io/gorm"
)

// IsDuplicateKey 判断是否违反唯一约束
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 未开启 TranslateError 的连接直接返回驱动错误
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// notFoundOr 记录不存在时返回 NotFound，其余错误原样返回
func notFoundOr(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(format, args...)
	}
	return err
}
