// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions (a standalone server rather than a replica
// set).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	txn := strings.Contains(msg, "transaction")
	switch {
	case txn && strings.Contains(msg, "replica set"):
		return true
	case txn && strings.Contains(msg, "session"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	case strings.Contains(msg, "illegal operation"):
		return true
	}
	return false
}

// Run executes fn in a transaction. On a deployment without transaction
// support fn runs directly, once, with a warning.
func Run(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Warn("transactions unavailable; running without", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions unavailable; running without", zap.Error(err))
		return fn(ctx)
	}
	return err
}
