package attachments

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	specSeparator      = "::"
	sniffLength        = 512
	defaultContentType = "application/octet-stream"
)

var errMissingPath = errors.New("attachment path is required")

// File is one attachment held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size reports the payload length in bytes.
func (file File) Size() int64 {
	return int64(len(file.Data))
}

// Load reads every specifier from disk in order.
func Load(specs []string) ([]File, error) {
	files := make([]File, 0, len(specs))
	for _, spec := range specs {
		file, err := loadOne(spec)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func loadOne(spec string) (File, error) {
	path, contentType := splitInput(spec)
	if path == "" {
		return File{}, errMissingPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read attachment %q: %w", path, err)
	}
	if contentType == "" {
		contentType = inferContentType(path, data)
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func splitInput(spec string) (string, string) {
	path, contentType, _ := strings.Cut(spec, specSeparator)
	return strings.TrimSpace(path), strings.TrimSpace(contentType)
}

func inferContentType(path string, data []byte) string {
	if byExtension := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExtension != "" {
		return byExtension
	}
	if len(data) == 0 {
		return defaultContentType
	}
	sample := data
	if len(sample) > sniffLength {
		sample = sample[:sniffLength]
	}
	return http.DetectContentType(sample)
}
