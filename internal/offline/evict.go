package offline

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/flarebyte/shiftlog/internal/log"
)

// Caches lists every installed cache id under dir.
func Caches(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "*/"+indexFile)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		id := path.Dir(m)
		if strings.HasPrefix(id, ".") {
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// EvictOthers removes every cache under the cache dir except this one and
// returns the removed ids.
func (c *Cache) EvictOthers() ([]string, error) {
	ids, err := Caches(c.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var removed []string
	for _, id := range ids {
		if id == c.ID() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(c.cfg.Dir, id)); err != nil {
			return removed, err
		}
		log.GetLogger().WithField("cache", id).Info("evicted stale offline cache")
		removed = append(removed, id)
	}
	return removed, nil
}
