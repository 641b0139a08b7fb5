package tileset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ecopia-map/osgb_tiler/internal/geometry"
	"github.com/ecopia-map/osgb_tiler/tools"
	"github.com/golang/glog"
)

// VerifyReport lists the problems found in a tileset tree
type VerifyReport struct {
	Tiles    int
	Problems []string
}

func (r *VerifyReport) OK() bool {
	return len(r.Problems) == 0
}

func (r *VerifyReport) addf(format string, args ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Verify walks the tileset at path and the documents it references. It checks that child boxes fit
// in their parent box (with tolerance meters of slack), that geometric error never grows towards the
// leaves and that every content file exists.
func Verify(path string, tolerance float64) (*VerifyReport, error) {
	ts, err := ReadTileset(path)
	if err != nil {
		return nil, err
	}
	report := &VerifyReport{}
	if ts.Root.GeometricError > ts.GeometricError {
		report.addf("%s: root error %v above tileset error %v", path, ts.Root.GeometricError, ts.GeometricError)
	}
	verifyTile(report, filepath.Dir(path), "root", &ts.Root, tolerance, map[string]bool{path: true})
	for _, problem := range report.Problems {
		glog.Warningln(problem)
	}
	glog.Infof("verified %d tiles of %s, %d problems", report.Tiles, path, len(report.Problems))
	return report, nil
}

func verifyTile(report *VerifyReport, dir, name string, tile *Tile, tolerance float64, visited map[string]bool) {
	report.Tiles++

	if p := tile.Content.Path(); p != "" && !strings.Contains(p, "://") {
		contentPath := filepath.Join(dir, filepath.FromSlash(p))
		if !tools.FileExists(contentPath) {
			report.addf("%s: content %s does not exist", name, p)
		} else if strings.EqualFold(filepath.Ext(contentPath), ".json") && !visited[contentPath] {
			visited[contentPath] = true
			verifyExternal(report, contentPath, tile, tolerance, visited)
		}
	}

	parentBox, hasBox := geometry.TilesetBoxFromSlice(tile.BoundingVolume.Box)
	for i, child := range tile.Children {
		childName := fmt.Sprintf("%s/%d", name, i)
		if child.GeometricError > tile.GeometricError {
			report.addf("%s: geometric error %v above parent %v", childName, child.GeometricError, tile.GeometricError)
		}
		// a child transform moves it out of the parent frame, containment cannot be checked directly
		if childBox, ok := geometry.TilesetBoxFromSlice(child.BoundingVolume.Box); ok && hasBox && len(child.Transform) == 0 {
			if !parentBox.BoundingBox().Contains(childBox.BoundingBox(), tolerance) {
				report.addf("%s: box %v not inside parent box %v", childName, child.BoundingVolume.Box, tile.BoundingVolume.Box)
			}
		}
		verifyTile(report, dir, childName, child, tolerance, visited)
	}
}

// verifyExternal checks the document a tile points to, its root must not claim more error than the referencing tile
func verifyExternal(report *VerifyReport, path string, parent *Tile, tolerance float64, visited map[string]bool) {
	ts, err := ReadTileset(path)
	if err != nil {
		report.addf("%s: %v", path, err)
		return
	}
	if ts.Root.GeometricError > parent.GeometricError {
		report.addf("%s: root error %v above referencing tile %v", path, ts.Root.GeometricError, parent.GeometricError)
	}
	verifyTile(report, filepath.Dir(path), path, &ts.Root, tolerance, visited)
}
