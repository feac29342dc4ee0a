package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"codeberg.org/mutker/duckovhaptics/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ViperOptions serves namespaced options out of a viper instance.
//
// Viper itself is only touched from the goroutine that calls the getters,
// Set and Dispatch. The file watcher goroutine merely flags that the file
// changed; Dispatch re-reads it and reports the keys whose values moved.
type ViperOptions struct {
	v         *viper.Viper
	prefix    string
	callbacks []func(string)
	last      map[string]string
	reload    atomic.Bool
	log       logger.Logger

	mu      sync.Mutex
	watched bool
}

var _ Options = (*ViperOptions)(nil)
var _ Watcher = (*ViperOptions)(nil)

// NewViperOptions returns an option store rooted at prefix
func NewViperOptions(v *viper.Viper, prefix string) *ViperOptions {
	o := &ViperOptions{
		v:      v,
		prefix: strings.ToLower(prefix),
		log:    logger.Component("options"),
	}
	o.last = o.snapshot()

	return o
}

func (o *ViperOptions) key(key string) string {
	return o.prefix + "." + strings.ToLower(key)
}

func (o *ViperOptions) GetBool(key string, def bool) bool {
	k := o.key(key)
	if !o.v.IsSet(k) {
		return def
	}

	return o.v.GetBool(k)
}

func (o *ViperOptions) GetFloat(key string, def float64) float64 {
	k := o.key(key)
	if !o.v.IsSet(k) {
		return def
	}

	return o.v.GetFloat64(k)
}

func (o *ViperOptions) GetInt(key string, def int) int {
	k := o.key(key)
	if !o.v.IsSet(k) {
		return def
	}

	return o.v.GetInt(k)
}

func (o *ViperOptions) Set(key string, value any) {
	k := o.key(key)
	o.v.Set(k, value)
	o.last[k] = fmt.Sprint(o.v.Get(k))
	o.notify(k)
}

func (o *ViperOptions) OnChanged(callback func(key string)) {
	o.callbacks = append(o.callbacks, callback)
}

func (o *ViperOptions) notify(key string) {
	for _, cb := range o.callbacks {
		cb(key)
	}
}

// Watch starts an fsnotify watcher on the directory holding the config file.
// It is a no-op when no file was read or the watcher is already running.
func (o *ViperOptions) Watch(ctx context.Context) error {
	file := o.v.ConfigFileUsed()
	if file == "" {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.watched {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New().Wrap(errors.ErrInitFailed, err)
	}

	file = filepath.Clean(file)
	if err := w.Add(filepath.Dir(file)); err != nil {
		w.Close()
		return errors.New().Wrap(errors.ErrInitFailed, err)
	}
	o.watched = true

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == file && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					o.reload.Store(true)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				o.log.Warn().Err(err).Msg("Config watcher error")
			}
		}
	}()

	o.log.Debug().Str("file", file).Msg("Watching config file")

	return nil
}

// Dispatch re-reads the config file if it changed and notifies callbacks for
// every option key whose value differs from the last seen value.
func (o *ViperOptions) Dispatch() {
	if !o.reload.Swap(false) {
		return
	}

	if err := o.v.ReadInConfig(); err != nil {
		o.log.Warn().Err(err).Msg("Failed to re-read config file")
		return
	}

	for _, k := range o.diff() {
		o.log.Debug().Str("key", k).Msg("Option changed")
		o.notify(k)
	}
}

// MarkChanged flags the config file as changed, as the watcher would
func (o *ViperOptions) MarkChanged() {
	o.reload.Store(true)
}

func (o *ViperOptions) snapshot() map[string]string {
	snap := make(map[string]string)
	for _, k := range o.v.AllKeys() {
		if strings.HasPrefix(k, o.prefix+".") {
			snap[k] = fmt.Sprint(o.v.Get(k))
		}
	}

	return snap
}

func (o *ViperOptions) diff() []string {
	current := o.snapshot()

	var changed []string
	for k, val := range current {
		if prev, ok := o.last[k]; !ok || prev != val {
			changed = append(changed, k)
		}
	}
	for k := range o.last {
		if _, ok := current[k]; !ok {
			changed = append(changed, k)
		}
	}
	o.last = current
	sort.Strings(changed)

	return changed
}
