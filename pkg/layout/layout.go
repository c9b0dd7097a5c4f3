// Package layout reads multiblock layouts from YAML or JSON documents. A
// layout names the dimensionality, the blocks and how they connect, the boxes
// to index and, optionally, a list of queries to run against them.
//
// Documents are checked against an embedded JSON schema before they are
// decoded, so structural mistakes are reported with their field paths.
package layout

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/boxtree/pkg/blockgeom"
	"github.com/Sumatoshi-tech/boxtree/pkg/box"
	"github.com/Sumatoshi-tech/boxtree/pkg/multiblock"
)

// Schema is the JSON schema every layout document must satisfy.
//
//go:embed layout-schema.json
var Schema []byte

// Sentinel errors.
var (
	ErrDecode  = errors.New("layout decode failed")
	ErrInvalid = errors.New("layout does not match schema")
)

// Layout is the decoded form of a layout document.
type Layout struct {
	Dim         int          `json:"dim"                   yaml:"dim"`
	MinNumber   int          `json:"min_number,omitempty"  yaml:"min_number,omitempty"`
	Blocks      []uint32     `json:"blocks,omitempty"      yaml:"blocks,omitempty"`
	Connections []Connection `json:"connections,omitempty" yaml:"connections,omitempty"`
	Boxes       []BoxSpec    `json:"boxes"                 yaml:"boxes"`
	Queries     []QuerySpec  `json:"queries,omitempty"     yaml:"queries,omitempty"`
}

// Connection declares that two blocks are adjacent. Transform maps From's
// frame into To's; the reverse direction is derived.
type Connection struct {
	From      uint32                   `json:"from"               yaml:"from"`
	To        uint32                   `json:"to"                 yaml:"to"`
	Singular  bool                     `json:"singular,omitempty" yaml:"singular,omitempty"`
	Transform blockgeom.Transformation `json:"transform"          yaml:"transform"`
}

// BoxSpec is a box in the frame of Block.
type BoxSpec struct {
	Block uint32 `json:"block" yaml:"block"`
	Lower []int  `json:"lower" yaml:"lower"`
	Upper []int  `json:"upper" yaml:"upper"`
}

// QuerySpec is an overlap query. Ratio defaults to all ones.
type QuerySpec struct {
	Name        string `json:"name,omitempty"        yaml:"name,omitempty"`
	Block       uint32 `json:"block"                 yaml:"block"`
	Lower       []int  `json:"lower"                 yaml:"lower"`
	Upper       []int  `json:"upper"                 yaml:"upper"`
	Ratio       []int  `json:"ratio,omitempty"       yaml:"ratio,omitempty"`
	Singularity bool   `json:"singularity,omitempty" yaml:"singularity,omitempty"`
}

// Query is a QuerySpec resolved into box types.
type Query struct {
	Name               string
	Block              box.BlockID
	Box                box.Box
	Ratio              box.IntVector
	IncludeSingularity bool
}

// Problem is a single schema violation.
type Problem struct {
	Field       string
	Description string
}

// String formats the problem as "field: description".
func (p Problem) String() string {
	return p.Field + ": " + p.Description
}

// Validate checks data against Schema. It returns the violations found, or
// an error when data is not a YAML or JSON document at all.
func Validate(data []byte) ([]Problem, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(Schema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	problems := make([]Problem, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, Problem{Field: verr.Field(), Description: verr.Description()})
	}

	return problems, nil
}

// Parse validates data and decodes it into a Layout.
func Parse(data []byte) (*Layout, error) {
	problems, err := Validate(data)
	if err != nil {
		return nil, err
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s (and %d more)", ErrInvalid, problems[0], len(problems)-1)
	}

	var l Layout

	err = yaml.Unmarshal(data, &l)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return &l, nil
}

// Load reads and parses the layout file at path.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}

	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}

	return l, nil
}

// Geometry builds the block geometry described by l. Blocks that only
// appear in boxes or connections are registered implicitly.
func (l *Layout) Geometry() (*blockgeom.Geometry, error) {
	geom, err := blockgeom.New(l.Dim)
	if err != nil {
		return nil, err
	}

	for _, id := range l.Blocks {
		geom.AddBlock(box.BlockID(id))
	}

	for _, spec := range l.Boxes {
		geom.AddBlock(box.BlockID(spec.Block))
	}

	for i, c := range l.Connections {
		err = geom.Connect(box.BlockID(c.From), box.BlockID(c.To), c.Transform, c.Singular)
		if err != nil {
			return nil, fmt.Errorf("connection %d: %w", i, err)
		}
	}

	return geom, nil
}

// BoxList converts the layout boxes, preserving their order.
func (l *Layout) BoxList() ([]box.Box, error) {
	out := make([]box.Box, 0, len(l.Boxes))

	for i, spec := range l.Boxes {
		b, err := box.New(box.BlockID(spec.Block), spec.Lower, spec.Upper)
		if err != nil {
			return nil, fmt.Errorf("box %d: %w", i, err)
		}

		out = append(out, b)
	}

	return out, nil
}

// QueryList converts the layout queries, preserving their order. Unnamed
// queries are named by their position.
func (l *Layout) QueryList() ([]Query, error) {
	out := make([]Query, 0, len(l.Queries))

	for i, spec := range l.Queries {
		b, err := box.New(box.BlockID(spec.Block), spec.Lower, spec.Upper)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}

		if b.Dim() != l.Dim {
			return nil, fmt.Errorf("%w: query %d has dimension %d, layout has %d",
				box.ErrDimensionMismatch, i, b.Dim(), l.Dim)
		}

		ratio := box.Ones(b.Dim())
		if len(spec.Ratio) > 0 {
			ratio = box.IntVector(spec.Ratio).Clone()
		}

		err = box.CheckRatio(ratio, b.Dim())
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}

		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("q%d", i)
		}

		out = append(out, Query{
			Name:               name,
			Block:              box.BlockID(spec.Block),
			Box:                b,
			Ratio:              ratio,
			IncludeSingularity: spec.Singularity,
		})
	}

	return out, nil
}

// Build constructs the geometry and a multiblock tree over the layout boxes.
// A min_number set in the layout takes precedence over opts.
func (l *Layout) Build(opts ...multiblock.Option) (*multiblock.Tree, error) {
	geom, err := l.Geometry()
	if err != nil {
		return nil, err
	}

	boxes, err := l.BoxList()
	if err != nil {
		return nil, err
	}

	if l.MinNumber > 0 {
		opts = append(slices.Clip(opts), multiblock.WithMinNumber(l.MinNumber))
	}

	return multiblock.NewFromBoxes(geom, boxes, opts...)
}
