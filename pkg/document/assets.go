package document

import (
	"os"
	"path/filepath"

	"github.com/panelkitchens/quotekit/pkg/logging"
)

// AssetFiles names the files LoadAssets reads from the assets directory.
type AssetFiles struct {
	Logo        string `json:"logo" yaml:"logo"`
	Watermark   string `json:"watermark" yaml:"watermark"`
	FontRegular string `json:"font_regular" yaml:"font_regular"`
	FontBold    string `json:"font_bold" yaml:"font_bold"`
}

// DefaultAssetFiles returns the standard asset names.
func DefaultAssetFiles() AssetFiles {
	return AssetFiles{
		Logo:        "logo.png",
		Watermark:   "watermark.png",
		FontRegular: "Heebo-Regular.ttf",
		FontBold:    "Heebo-Bold.ttf",
	}
}

// Assets are the static inputs of every document. Any field may be nil; the
// renderer omits what is missing.
type Assets struct {
	Logo        []byte
	Watermark   []byte
	FontRegular []byte
	FontBold    []byte
}

// LoadAssets reads the asset files from dir. Missing or unreadable files are
// logged and left nil rather than failing.
func LoadAssets(dir string, files AssetFiles, logger logging.Logger) *Assets {
	if logger == nil {
		logger = logging.NewNop()
	}
	read := func(kind, name string) []byte {
		if name == "" {
			return nil
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Asset unavailable",
				logging.NewField("asset", kind),
				logging.NewField("path", path),
				logging.NewField("error", err),
			)
			return nil
		}
		return data
	}

	return &Assets{
		Logo:        read("logo", files.Logo),
		Watermark:   read("watermark", files.Watermark),
		FontRegular: read("font_regular", files.FontRegular),
		FontBold:    read("font_bold", files.FontBold),
	}
}
