package scene

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shatter/pkg/geom"
	"github.com/Faultbox/shatter/pkg/geometry"
)

const chain = `
name: Chain
chunks:
  - name: a
  - name: b
    parent: a
    translation: [1, 0, 0]
  - name: c
    parent: b
    translation: [0.5, 0, 1]
`

func TestParseChain(t *testing.T) {
	c, err := Parse(strings.NewReader(chain))
	require.NoError(t, err)

	assert.Equal(t, 3, c.NumTransforms())
	assert.Equal(t, 3, c.NumGeometry())
	assert.Equal(t, []int32{geometry.Invalid, 0, 1}, c.Parent.Slice())
	assert.Equal(t, []int32{0, 1, 2}, c.Level.Slice())
	assert.Equal(t, []string{"Chain", "Chain_000", "Chain_000_000"}, c.BoneName.Slice())
	for n := 0; n < 3; n++ {
		assert.True(t, c.IsRigid(n))
	}

	world := c.GlobalTransforms()
	assert.Equal(t, geom.Vec3{1.5, 0, 1}, world[2].Translation)
}

func TestParseClusterRootAndShapes(t *testing.T) {
	const src = `
chunks:
  - name: root
    cluster: true
  - name: slab
    parent: root
    size: [2, 0.5, 1]
    scale: [1, 2, 1]
  - name: tilted
    parent: root
    translation: [3, 0, 0]
    rotation: [0, 0, 90]
`
	c, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 3, c.NumTransforms())
	assert.Equal(t, 2, c.NumGeometry())
	assert.True(t, c.IsClustered(0))
	assert.False(t, c.IsGeometry(0))
	assert.Equal(t, "root", c.BoneName.At(0))
	assert.Equal(t, geom.Vec3{1, 2, 1}, c.Transform.At(1).Scale)

	// The slab box is 2 x 0.5 x 1 locally and doubled along y.
	b := c.WorldBounds()[0]
	size := b.Size()
	assert.InDelta(t, 2, size[0], 1e-5)
	assert.InDelta(t, 1, size[1], 1e-5)
	assert.InDelta(t, 1, size[2], 1e-5)
}

func TestParseChildBeforeParent(t *testing.T) {
	const src = `
name: Chain
chunks:
  - name: c
    parent: b
    translation: [0.5, 0, 1]
  - name: b
    parent: a
    translation: [1, 0, 0]
  - name: a
`
	c, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []int32{geometry.Invalid, 0, 1}, c.Parent.Slice())
	assert.Equal(t, []int32{0, 1, 2}, c.Level.Slice())
	world := c.GlobalTransforms()
	assert.Equal(t, geom.Vec3{1.5, 0, 1}, world[2].Translation)
}

func TestParseSeveralRoots(t *testing.T) {
	const src = `
name: Pile
chunks:
  - name: a
  - name: b
    translation: [1, 0, 0]
`
	c, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	require.Equal(t, 3, c.NumTransforms())
	assert.Equal(t, []int{2}, c.Roots())
	assert.True(t, c.IsClustered(2))
	assert.Equal(t, "Pile", c.BoneName.At(2))
	assert.Equal(t, []int32{0, 1}, c.Children.Members(2))
	assert.Equal(t, "Pile_000", c.BoneName.At(0))
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ``},
		{"no chunks", "name: x\n"},
		{"unnamed", "chunks:\n  - translation: [0, 0, 0]\n"},
		{"duplicate", "chunks:\n  - name: a\n  - name: a\n"},
		{"unknown parent", "chunks:\n  - name: a\n    parent: b\n"},
		{"loop", "chunks:\n  - name: a\n    parent: b\n  - name: b\n    parent: a\n"},
		{"flat box", "chunks:\n  - name: a\n    size: [1, 0, 1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("chunks:\n  - name: a\n    colour: red\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(chain), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.NumGeometry())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteTree(t *testing.T) {
	c, err := Parse(strings.NewReader(chain))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTree(&buf, c))

	want := "Chain [0] rigid geometry=0\n" +
		"  Chain_000 [1] rigid geometry=1\n" +
		"    Chain_000_000 [2] rigid geometry=2\n"
	assert.Equal(t, want, buf.String())
}
