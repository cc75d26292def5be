/*
 * SPDX-FileCopyrightText: 2019 SAP SE or an SAP affiliate company and Gardener contributors
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package ctxutil provides contexts carrying their own cancel function.
package ctxutil

import (
	"context"
	"time"
)

// SimpleKey is a context key identified by its name.
type SimpleKey string

func (k SimpleKey) String() string {
	return string(k)
}

var cancelkey = SimpleKey("cancel")

func CancelContext(ctx context.Context) context.Context {
	return cancelContext(context.WithCancel(ctx))
}

// TimeoutContext creates a cancelable context with a timeout. A
// non-positive duration creates a context without timeout.
func TimeoutContext(ctx context.Context, duration time.Duration) context.Context {
	if duration <= 0 {
		return CancelContext(ctx)
	}
	return cancelContext(context.WithTimeout(ctx, duration))
}

func cancelContext(ctx context.Context, cancel context.CancelFunc) context.Context {
	return context.WithValue(ctx, cancelkey, cancel)
}

// Cancel cancels a context created by this package. For other contexts it
// does nothing.
func Cancel(ctx context.Context) {
	if cancel, ok := ctx.Value(cancelkey).(context.CancelFunc); ok {
		cancel()
	}
}
