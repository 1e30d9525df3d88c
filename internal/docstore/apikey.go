package docstore

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
)

// APIKeyHeader must match the key on file for every request; the check runs
// before the store is touched.
const APIKeyHeader = "X-SETTING-DB-API-KEY"

// KeySource supplies the currently expected API key.
type KeySource interface {
	Current() string
}

// StaticKey is a fixed KeySource, used in tests and simple deployments.
type StaticKey string

func (k StaticKey) Current() string { return string(k) }

// KeyWatcher reloads the expected API key from a file whenever it changes,
// so the key can be rotated without a restart (the file is typically a
// vault-managed mount).
type KeyWatcher struct {
	path string
	val  atomic.Value
	log  *slog.Logger
}

// WatchKey reads the key file once and starts watching its directory for
// changes. Watching the directory instead of the file survives the
// rename-replace writes vaults and editors do.
func WatchKey(ctx context.Context, path string, log *slog.Logger) (*KeyWatcher, error) {
	w := &KeyWatcher{path: path, log: log}
	w.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					log.Info("api key file changed, reloading")
					w.reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("api key watch error", "err", err)
			}
		}
	}()
	return w, nil
}

func (w *KeyWatcher) reload() {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		w.log.Error("api key file unreadable", "err", err)
		w.val.Store("")
		return
	}
	w.val.Store(strings.TrimSpace(string(raw)))
}

func (w *KeyWatcher) Current() string {
	if v, ok := w.val.Load().(string); ok {
		return v
	}
	return ""
}

// RequireAPIKey rejects requests whose header does not match the current
// key. An empty current key rejects everything: fail closed while the key
// file is missing.
func RequireAPIKey(keys KeySource) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := c.GetHeader(APIKeyHeader)
		expected := keys.Current()
		if expected == "" || clientKey != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
