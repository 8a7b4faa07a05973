// Package geometry turns uploaded drawing files into the polygons used as
// search areas against the cadastral registry.
package geometry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpaloschi/dxf-go/core"
	"github.com/rpaloschi/dxf-go/entities"
	"github.com/rpaloschi/dxf-go/sections"

	dErrors "masseutsendelse/pkg/domain-errors"
)

// PolygonEntityType is the drawing entity accepted as a closed outline.
const PolygonEntityType = "LWPOLYLINE"

// Coordinate is an (x, y) pair in the drawing's coordinate system.
type Coordinate [2]float64

// Polygon is one outline from a drawing file. Metadata holds the entity's
// attributes except its vertices. Polygons are not modified after Extract
// returns them.
type Polygon struct {
	Vertices []Coordinate   `json:"vertices"`
	Metadata map[string]any `json:"metadata"`
}

// SetParserLogger routes the DXF parser's notices about skipped tags and
// entity types to logger at debug level. Call it once at startup.
func SetParserLogger(logger *slog.Logger) {
	core.Log = slog.NewLogLogger(logger.Handler(), slog.LevelDebug)
}

// Extract parses DXF text and returns every polygon in it, in file order.
// It fails with a geometry error when the file cannot be read, has no
// shapes, has shapes but no polygons, or has a polygon without vertices.
// Nothing is returned on failure.
func Extract(text string) ([]Polygon, error) {
	list, err := parseEntities(text)
	if err != nil {
		return nil, &dErrors.Error{
			Code:    dErrors.CodeGeometry,
			Title:   "Could not read the file",
			Message: "The file is not a readable DXF drawing",
			Err:     err,
		}
	}
	return FromEntities(list)
}

// FromEntities filters parsed drawing entities down to their polygons.
func FromEntities(list entities.EntitySlice) ([]Polygon, error) {
	if len(list) == 0 {
		return nil, dErrors.WithTitle(dErrors.CodeGeometry,
			"The file contains no shapes",
			"We were unable to find any shapes in the file")
	}

	var outlines []*entities.LWPolyline
	for _, entity := range list {
		if outline, ok := entity.(*entities.LWPolyline); ok {
			outlines = append(outlines, outline)
		}
	}
	if len(outlines) == 0 {
		return nil, dErrors.WithTitle(dErrors.CodeGeometry,
			"No polygons in file",
			fmt.Sprintf("We were able to find %d shapes in the file, but none are polygons", len(list)))
	}

	polygons := make([]Polygon, 0, len(outlines))
	for _, outline := range outlines {
		if len(outline.Points) == 0 {
			return nil, dErrors.WithTitle(dErrors.CodeGeometry,
				"Polygon is missing vertices",
				"One or more polygons in the file contains no vertices")
		}
		polygons = append(polygons, toPolygon(outline))
	}
	return polygons, nil
}

// parseEntities runs the DXF parser over the ENTITIES section of text. A
// file without that section yields no entities and no error.
func parseEntities(text string) (list entities.EntitySlice, err error) {
	section, found := entitiesSection(text)
	if !found {
		return nil, nil
	}

	// The parser indexes into its own slices without bounds checks, for
	// example when a polyline has more vertices than its count says.
	defer func() {
		if r := recover(); r != nil {
			list, err = nil, fmt.Errorf("dxf: malformed entities section: %v", r)
		}
	}()

	next := core.Tagger(strings.NewReader(section))
	tags := make(core.TagSlice, 0)
	for {
		tag, err := next()
		if err != nil {
			return nil, fmt.Errorf("dxf: %w", err)
		}
		if *tag == core.NoneTag {
			break
		}
		tags = append(tags, tag)
	}

	parsed, err := sections.NewEntitiesSection(tags)
	if err != nil {
		return nil, fmt.Errorf("dxf: %w", err)
	}
	return parsed.Entities, nil
}

// entitiesSection cuts the ENTITIES section out of a DXF file, dropping 999
// comment pairs, and returns it as a standalone section. Several ENTITIES
// sections are merged. Other sections are never parsed: header variables
// of newer files use group codes the parser has no type for.
func entitiesSection(text string) (string, bool) {
	lines := strings.Split(text, "\n")

	var b strings.Builder
	found, inside, opened := false, false, false
	for i := 0; i+1 < len(lines); i += 2 {
		code := strings.TrimSpace(lines[i])
		value := strings.TrimSpace(lines[i+1])
		if code == "" || code == "999" {
			continue
		}

		switch {
		case inside && code == "0" && value == "ENDSEC":
			inside = false
		case inside:
			b.WriteString(code)
			b.WriteByte('\n')
			b.WriteString(strings.TrimRight(lines[i+1], "\r"))
			b.WriteByte('\n')
		case opened && code == "2" && value == "ENTITIES":
			inside, found = true, true
		}
		opened = !inside && code == "0" && value == "SECTION"
	}
	if !found {
		return "", false
	}
	return "0\nSECTION\n2\nENTITIES\n" + b.String() + "0\nENDSEC\n0\nEOF\n", true
}

func toPolygon(outline *entities.LWPolyline) Polygon {
	vertices := make([]Coordinate, len(outline.Points))
	var bulges []float64
	for i, p := range outline.Points {
		vertices[i] = Coordinate{p.Point.X, p.Point.Y}
		if p.Bulge != 0 && bulges == nil {
			bulges = make([]float64, len(outline.Points))
		}
	}
	if bulges != nil {
		for i, p := range outline.Points {
			bulges[i] = p.Bulge
		}
	}

	metadata := map[string]any{
		"type":  PolygonEntityType,
		"shape": outline.Closed,
	}
	setIf(metadata, "handle", outline.Handle, outline.Handle != "")
	setIf(metadata, "ownerHandle", outline.Owner, outline.Owner != "")
	setIf(metadata, "layer", outline.LayerName, outline.LayerName != "")
	setIf(metadata, "lineType", outline.LineTypeName, outline.LineTypeName != "")
	setIf(metadata, "colorIndex", outline.Color, outline.Color != 0)
	setIf(metadata, "lineweight", outline.LineWeight, outline.LineWeight != 0)
	setIf(metadata, "elevation", outline.Elevation, outline.Elevation != 0)
	setIf(metadata, "depth", outline.Thickness, outline.Thickness != 0)
	setIf(metadata, "width", outline.ConstantWidth, outline.ConstantWidth != 0)
	setIf(metadata, "bulges", bulges, bulges != nil)

	ext := outline.ExtrusionDirection
	if ext.X != 0 || ext.Y != 0 || ext.Z != 1 {
		metadata["extrusionDirection"] = map[string]float64{"x": ext.X, "y": ext.Y, "z": ext.Z}
	}

	return Polygon{Vertices: vertices, Metadata: metadata}
}

func setIf(metadata map[string]any, key string, value any, ok bool) {
	if ok {
		metadata[key] = value
	}
}
