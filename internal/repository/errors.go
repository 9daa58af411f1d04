package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicateSlug は記事スラッグの一意制約違反を表す。
// サービス層はこのエラーを契機にサフィックス付きスラッグで再試行する。
var ErrDuplicateSlug = errors.New("duplicate slug")

// uniqueViolationCode はPostgreSQLの一意制約違反のSQLSTATE。
const uniqueViolationCode = "23505"

// invalidTextRepresentationCode は型変換失敗（不正なUUID形式等）のSQLSTATE。
const invalidTextRepresentationCode = "22P02"

// isUniqueViolation はエラーが一意制約違反かを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}

// isInvalidTextRepresentation はエラーがUUIDカラムへの不正な値の
// バインドによる型変換失敗かを判定する。
// パスパラメータ由来の不正なIDは該当行なしとして扱う。
func isInvalidTextRepresentation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == invalidTextRepresentationCode
	}
	return false
}
