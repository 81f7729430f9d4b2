// Package service implements the request/application lifecycle and
// admission-control core: post lifecycle, application admission, the
// subscription/token entitlement gate, chat session brokering and match
// recording. Every check-and-write runs inside a single transaction or a
// single conditional statement, so the invariants hold under concurrent
// unsynchronized callers.
package service

import (
	"context"
	"errors"

	"carematch/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate adds a row lock on dialects that support it. SQLite has no
// FOR UPDATE; its single writer serializes transactions instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// isOperator reports whether the user holds the operator role.
func isOperator(ctx context.Context, tx *gorm.DB, userID uint) (bool, error) {
	var user models.User
	err := tx.WithContext(ctx).Select("user_type").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsOperator(), nil
}
