// Package scene loads cube scenes from YAML into a geometry collection.
//
// A scene lists chunks by name. Each chunk is a box with a local transform
// relative to its parent, or a pure cluster node when cluster is set:
//
//	name: Wall
//	chunks:
//	  - name: left
//	    translation: [0, 0, 0]
//	  - name: right
//	    parent: left
//	    translation: [1, 0, 0]
//	    rotation: [0, 0, 45]
//	    size: [1, 2, 1]
package scene

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/shatter/internal/hierarchy"
	"github.com/Faultbox/shatter/internal/logger"
	"github.com/Faultbox/shatter/pkg/geom"
	"github.com/Faultbox/shatter/pkg/geometry"
)

var ErrInvalid = errors.New("invalid scene")

// File is the YAML layout of a scene.
type File struct {
	// Name names the root. Scenes with several top-level chunks get a new
	// clustered root of this name.
	Name   string  `yaml:"name"`
	Chunks []Chunk `yaml:"chunks"`
}

// Chunk is one scene node.
type Chunk struct {
	Name        string      `yaml:"name"`
	Parent      string      `yaml:"parent"`
	Translation [3]float32  `yaml:"translation"`
	Rotation    [3]float32  `yaml:"rotation"` // XYZ euler degrees
	Scale       *[3]float32 `yaml:"scale"`    // default 1,1,1
	Size        *[3]float32 `yaml:"size"`     // default unit cube
	Cluster     bool        `yaml:"cluster"`  // no geometry
}

// Load reads and builds the scene at path.
func Load(path string) (*geometry.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("loading scene %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a scene from r and builds it.
func Parse(r io.Reader) (*geometry.Collection, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no chunks", ErrInvalid)
		}
		return nil, err
	}
	return Build(file)
}

// Build turns a scene description into a collection with levels and bone
// names updated. Box chunks are rigid, cluster chunks are clustered.
func Build(file File) (*geometry.Collection, error) {
	if len(file.Chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks", ErrInvalid)
	}
	if err := checkParents(file.Chunks); err != nil {
		return nil, err
	}

	c := geometry.New()
	index := make(map[string]int, len(file.Chunks))
	for _, ch := range parentsFirst(file.Chunks) {
		parent := int(geometry.Invalid)
		if ch.Parent != "" {
			parent = index[ch.Parent]
		}

		t := geom.FromEuler(ch.Rotation, ch.Translation)
		if ch.Scale != nil {
			t.Scale = *ch.Scale
		}
		if ch.Cluster {
			node := c.AppendChunk(parent, geometry.Chunk{Name: ch.Name, Transform: t})
			c.SimulationType.Set(node, geometry.SimulationClustered)
			index[ch.Name] = node
			continue
		}

		size := geom.Vec3{1, 1, 1}
		if ch.Size != nil {
			size = *ch.Size
		}
		if size[0] <= 0 || size[1] <= 0 || size[2] <= 0 {
			return nil, fmt.Errorf("%w: chunk %q has size %v", ErrInvalid, ch.Name, size)
		}
		cube := geometry.CubeChunk(t, size)
		cube.Name = ch.Name
		index[ch.Name] = c.AppendChunk(parent, cube)
	}

	if hierarchy.ContainsMultipleRootBones(c) {
		hierarchy.ClusterAllBonesUnderNewRoot(c)
	}
	root := c.Roots()[0]
	if file.Name != "" {
		c.BoneName.Set(root, file.Name)
	}
	hierarchy.UpdateHierarchyLevelOfChildren(c, int(geometry.Invalid))
	hierarchy.RecursivelyUpdateBoneNames(c)

	if err := hierarchy.Check(c); err != nil {
		return nil, err
	}
	logger.Debug("scene built",
		zap.String("root", c.BoneName.At(root)),
		zap.Int("transforms", c.NumTransforms()),
		zap.Int("geometry", c.NumGeometry()),
	)
	return c, nil
}

// checkParents rejects empty or duplicate names, unknown parents and
// parent loops.
func checkParents(chunks []Chunk) error {
	parent := make(map[string]string, len(chunks))
	for _, ch := range chunks {
		if ch.Name == "" {
			return fmt.Errorf("%w: chunk without a name", ErrInvalid)
		}
		if _, dup := parent[ch.Name]; dup {
			return fmt.Errorf("%w: duplicate chunk %q", ErrInvalid, ch.Name)
		}
		parent[ch.Name] = ch.Parent
	}

	for _, ch := range chunks {
		seen := map[string]bool{ch.Name: true}
		for p := ch.Parent; p != ""; p = parent[p] {
			if _, ok := parent[p]; !ok {
				return fmt.Errorf("%w: chunk %q has unknown parent %q", ErrInvalid, ch.Name, p)
			}
			if seen[p] {
				return fmt.Errorf("%w: parent loop through %q", ErrInvalid, p)
			}
			seen[p] = true
		}
	}
	return nil
}

// parentsFirst orders chunks so every parent precedes its children, keeping
// file order otherwise. Parents must already have been checked.
func parentsFirst(chunks []Chunk) []Chunk {
	placed := make(map[string]bool, len(chunks))
	out := make([]Chunk, 0, len(chunks))
	for len(out) < len(chunks) {
		for _, ch := range chunks {
			if placed[ch.Name] || (ch.Parent != "" && !placed[ch.Parent]) {
				continue
			}
			placed[ch.Name] = true
			out = append(out, ch)
		}
	}
	return out
}
