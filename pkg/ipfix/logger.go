/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ipfix

import (
	"context"
	"sync/atomic"

	"github.com/go-logr/logr"
)

// root is the package-wide root logger. It starts out discarding everything;
// call SetLogger once during process startup to attach a real sink.
//
// Unlike a library meant to be imported by third parties ahead of their own
// logger setup, this collector controls its own main() and can call
// SetLogger before spawning any goroutine that logs, so no delayed-fulfillment
// promise machinery is needed here, just an atomic swap.
var root atomic.Pointer[logr.Logger]

func init() {
	discard := logr.Discard()
	root.Store(&discard)
}

// SetLogger installs l as the package-wide root logger.
func SetLogger(l logr.Logger) {
	root.Store(&l)
}

// FromContext returns the logger carried by ctx, or the package root logger
// if ctx carries none, with keysAndValues attached.
func FromContext(ctx context.Context, keysAndValues ...interface{}) logr.Logger {
	log := *root.Load()
	if ctx != nil {
		if logger, err := logr.FromContext(ctx); err == nil {
			log = logger
		}
	}
	return log.WithValues(keysAndValues...)
}

// IntoContext returns a copy of ctx carrying l, retrievable via FromContext.
func IntoContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}
