package catalog

import (
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/panelkitchens/quotekit/pkg/logging"
)

// DefaultCacheSize is the number of parsed catalogs a Loader keeps.
const DefaultCacheSize = 32

type fileKey struct {
	path    string
	modTime time.Time
	size    int64
}

// Loader reads catalog files and caches the parsed result. A file that was
// modified since it was cached is read again. It is safe for concurrent use.
type Loader struct {
	cache  *lru.Cache[fileKey, *Catalog]
	logger logging.Logger
}

// NewLoader returns a loader caching up to size catalogs. A size of zero or
// less disables caching.
func NewLoader(size int, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	l := &Loader{logger: logger}
	if size > 0 {
		cache, err := lru.New[fileKey, *Catalog](size)
		if err != nil {
			logger.Warn("Catalog cache disabled", logging.NewField("error", err))
		}
		l.cache = cache
	}
	return l
}

// Load returns the catalog stored at path, read as a workbook when path ends
// in .xlsx or .xlsm and as CSV otherwise.
func (l *Loader) Load(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog %s: %w", path, err)
	}
	key := fileKey{path: path, modTime: info.ModTime(), size: info.Size()}

	if l.cache != nil {
		if c, ok := l.cache.Get(key); ok {
			return c, nil
		}
	}

	c, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		l.cache.Add(key, c)
	}

	l.logger.Info("Catalog loaded",
		logging.NewField("path", path),
		logging.NewField("products", len(c.Products)),
	)
	return c, nil
}
