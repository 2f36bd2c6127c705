package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/veridoc/veridoc/internal/logging"
	"github.com/veridoc/veridoc/internal/model"
)

// mimeByExtension maps the accepted upload formats
var mimeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// LoadApplication reads an application from a directory laid out as one
// subdirectory per document type, each holding the submitted page
// images. The page side is inferred from "front"/"back" in the
// filename; anything else is treated as unknown.
func LoadApplication(dir string) (*Application, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	samples := make(map[model.DocumentType]*model.DocumentSample)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		docType, err := model.ParseDocumentType(entry.Name())
		if err != nil {
			logging.Warnf("skipping unrecognized document directory %q", entry.Name())
			continue
		}

		sample, err := loadSample(docType, filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", docType, err)
		}
		if len(sample.Pages) > 0 {
			samples[docType] = sample
		}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("no document samples found in %s", dir)
	}
	return &Application{Samples: samples}, nil
}

func loadSample(docType model.DocumentType, dir string) (*model.DocumentSample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var pages []model.DocumentPage
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		mime, ok := mimeByExtension[strings.ToLower(filepath.Ext(entry.Name()))]
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read page %s: %w", entry.Name(), err)
		}
		pages = append(pages, model.DocumentPage{
			Filename: entry.Name(),
			Side:     InferSide(entry.Name()),
			MIME:     mime,
			Data:     data,
		})
	}

	sample := &model.DocumentSample{Type: docType, Pages: pages}
	// front pages sort before back so merge preference is stable
	sample.Pages = orderPages(sample)
	return sample, nil
}

func orderPages(sample *model.DocumentSample) []model.DocumentPage {
	ordered := sample.PagesOfSide(model.SideFront)
	ordered = append(ordered, sample.PagesOfSide(model.SideBack)...)
	return append(ordered, sample.PagesOfSide(model.SideUnknown)...)
}

// InferSide derives the document side from a filename
func InferSide(filename string) model.DocumentSide {
	lower := strings.ToLower(filename)
	switch {
	case strings.Contains(lower, "front"):
		return model.SideFront
	case strings.Contains(lower, "back"):
		return model.SideBack
	default:
		return model.SideUnknown
	}
}
