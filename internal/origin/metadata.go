package origin

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const MetadataFileName = "metadata.xml"

// ModelMetadata is the spatial reference block shipped next to the Data/ folder of an oblique
// photography export
type ModelMetadata struct {
	XMLName   xml.Name `xml:"ModelMetadata"`
	Version   string   `xml:"version,attr"`
	SRS       string   `xml:"SRS"`
	SRSOrigin string   `xml:"SRSOrigin"`
}

func ParseMetadata(r io.Reader) (*ModelMetadata, error) {
	var metadata ModelMetadata
	if err := xml.NewDecoder(r).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &metadata, nil
}

// ReadMetadata loads <dir>/metadata.xml
func ReadMetadata(dir string) (*ModelMetadata, error) {
	path := filepath.Join(dir, MetadataFileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	metadata, err := ParseMetadata(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return metadata, nil
}
