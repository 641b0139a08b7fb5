package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/golang/glog"
)

const (
	DataFolderName = "Data"
	CellExtension  = ".osgb"
)

var (
	ErrMissingDataDir  = errors.New("input has no Data folder")
	ErrMissingCellFile = errors.New("cell geometry file is missing")
)

type FileFinder interface {
	GetCellUnits(input, output string) ([]tiler.ConversionUnit, error)
	GetTileDocuments(dir string) ([]string, error)
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

// GetCellUnits lists every <input>/Data/<cell>/<cell>.osgb, mirrored under <output>/Data/<cell>.
// Units are sorted by cell name so that runs do not depend on directory enumeration order.
func (f *StandardFileFinder) GetCellUnits(input, output string) ([]tiler.ConversionUnit, error) {
	dataDir := filepath.Join(input, DataFolderName)
	info, err := os.Stat(dataDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrMissingDataDir, dataDir)
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, err
	}

	units := make([]tiler.ConversionUnit, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		cellFile := filepath.Join(dataDir, name, name+CellExtension)
		if _, err := os.Stat(cellFile); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingCellFile, cellFile)
		}
		units = append(units, tiler.ConversionUnit{
			Name:   name,
			Input:  cellFile,
			Output: filepath.Join(output, DataFolderName, name),
		})
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	glog.Infof("found %d cells in %s", len(units), dataDir)
	return units, nil
}

// GetTileDocuments walks dir recursively and returns every json document, sorted
func (f *StandardFileFinder) GetTileDocuments(dir string) ([]string, error) {
	var documents = make([]string, 0)

	err := filepath.Walk(
		dir,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && strings.ToLower(filepath.Ext(info.Name())) == ".json" {
				documents = append(documents, path)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	sort.Strings(documents)
	return documents, nil
}
