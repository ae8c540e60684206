// YAML geometry files
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package job

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"wirecam/pkg/cam"
	"wirecam/pkg/errors"
	"wirecam/pkg/operation"
)

func toPoints(file, what string, coords [][]float64) ([]cam.Point, error) {
	pts := make([]cam.Point, len(coords))
	for i, c := range coords {
		switch len(c) {
		case 2:
			pts[i] = cam.Point{X: c[0], Y: c[1]}
		case 3:
			pts[i] = cam.Point{X: c[0], Y: c[1], Z: c[2]}
		default:
			return nil, errors.JobGeometryError(file, fmt.Sprintf("%s point %d has %d coordinates, want 2 or 3", what, i, len(c)))
		}
	}
	return pts, nil
}

func toTab(file string, i int, coords [][]float64) (cam.Polygon, error) {
	if len(coords) < 3 {
		return nil, errors.JobGeometryError(file, fmt.Sprintf("tab %d has %d points, want at least 3", i, len(coords)))
	}
	pts, err := toPoints(file, fmt.Sprintf("tab %d", i), coords)
	return cam.Polygon(pts), err
}

// DecodeGeometry parses a YAML paths file.
func DecodeGeometry(data []byte, file string) (operation.StaticGeometry, error) {
	var g geometryFile
	if err := yaml.Unmarshal(data, &g); err != nil {
		return operation.StaticGeometry{}, errors.JobParseError(file, err)
	}
	var out operation.StaticGeometry
	for i, p := range g.Paths {
		pts, err := toPoints(file, fmt.Sprintf("path %d", i), p.Points)
		if err != nil {
			return operation.StaticGeometry{}, err
		}
		out.Paths = append(out.Paths, cam.CamPath{Points: pts, SafeToClose: p.SafeToClose})
	}
	for i, t := range g.Tabs {
		tab, err := toTab(file, i, t)
		if err != nil {
			return operation.StaticGeometry{}, err
		}
		out.Tabs = append(out.Tabs, tab)
	}
	return out, nil
}

// LoadGeometry reads and parses a YAML paths file.
func LoadGeometry(path string) (operation.StaticGeometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return operation.StaticGeometry{}, errors.JobParseError(path, err)
	}
	return DecodeGeometry(data, path)
}
