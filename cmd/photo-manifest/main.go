package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/DMarby/instafilter/internal/database"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/storage"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// Comandline flags
var (
	photoPath    = flag.String("photo-path", ".", "path to the photo directory")
	manifestPath = flag.String("manifest-path", "./metadata.json", "path to the photo manifest to update")
	loglevel     = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")
)

func main() {
	flag.Parse()

	log := logger.New(*loglevel)
	defer log.Sync()

	manifestData, err := os.ReadFile(*manifestPath)
	if err != nil {
		log.Fatal(err)
	}

	var photos []database.Image
	if err := json.Unmarshal(manifestData, &photos); err != nil {
		log.Fatal(err)
	}

	for i := range photos {
		if err := updateDimensions(&photos[i]); err != nil {
			log.Fatalf("error reading photo %s: %s", photos[i].ID, err)
		}

		log.Debugw("updated photo", "id", photos[i].ID, "width", photos[i].Width, "height", photos[i].Height)
	}

	file, err := os.Create(*manifestPath)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")

	if err := encoder.Encode(photos); err != nil {
		log.Fatal(err)
	}

	log.Infof("updated %d photos in %s", len(photos), *manifestPath)
}

// updateDimensions sets the width and height of a photo to those of its file, after EXIF orientation is applied
func updateDimensions(photo *database.Image) error {
	img, err := imaging.Open(filepath.Join(*photoPath, storage.PhotoKey(photo.ID)), imaging.AutoOrientation(true))
	if err != nil {
		return err
	}

	photo.Width = img.Bounds().Dx()
	photo.Height = img.Bounds().Dy()
	return nil
}
