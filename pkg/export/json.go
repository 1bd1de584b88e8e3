package export

import (
	"encoding/json"

	"github.com/matzehuels/snapstack/pkg/layout"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	connections bool
}

// WithJSONConnections appends the flat connection list to the document.
func WithJSONConnections() JSONOption { return func(r *jsonRenderer) { r.connections = true } }

type jsonDocument struct {
	Width       float64          `json:"width"`
	Height      float64          `json:"height"`
	Scale       float64          `json:"scale"`
	Groups      []jsonGroup      `json:"groups"`
	Connections []jsonConnection `json:"connections,omitempty"`
}

type jsonGroup struct {
	ZIndex uint64      `json:"z_index"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Blocks []jsonBlock `json:"blocks"`
}

type jsonBlock struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Shadow   bool        `json:"shadow,omitempty"`
	Disabled bool        `json:"disabled,omitempty"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Inputs   []jsonInput `json:"inputs,omitempty"`
}

type jsonInput struct {
	Name   string      `json:"name"`
	Kind   string      `json:"kind"`
	Fields []jsonField `json:"fields,omitempty"`
	Blocks []jsonBlock `json:"blocks,omitempty"`
}

type jsonField struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type jsonConnection struct {
	From   string  `json:"from"`
	Kind   string  `json:"kind"`
	To     string  `json:"to,omitempty"`
	Shadow string  `json:"shadow,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// RenderJSON exports the layout tree as a pretty-printed JSON document.
// Records nest the way the tree nests: groups hold blocks, blocks hold
// inputs, inputs hold fields and any connected (or shadow-substituted)
// blocks. Every record carries its view rect; the document header carries
// canvas extent and scale, so a consumer can reproject to workspace units.
// It does not modify the tree and returns an error only if marshaling
// fails.
func RenderJSON(wl *layout.WorkspaceLayout, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	view := wl.ViewRect()
	doc := jsonDocument{
		Width:  view.Size.Width,
		Height: view.Size.Height,
		Scale:  wl.Config().Scale(),
	}
	for _, g := range wl.BlockGroups() {
		doc.Groups = append(doc.Groups, jsonGroup{
			ZIndex: g.ZIndex(),
			X:      g.RelativePosition().X,
			Y:      g.RelativePosition().Y,
			Blocks: buildJSONBlocks(g),
		})
	}
	if r.connections {
		for _, g := range wl.BlockGroups() {
			doc.Connections = append(doc.Connections, buildJSONConnections(g)...)
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

func buildJSONBlocks(g *layout.BlockGroupLayout) []jsonBlock {
	blocks := make([]jsonBlock, 0, len(g.BlockLayouts()))
	for _, bl := range g.BlockLayouts() {
		block := bl.Block()
		rect := bl.ViewRect()
		jb := jsonBlock{
			ID:       block.ID(),
			Name:     block.Name(),
			Shadow:   block.Shadow(),
			Disabled: block.Disabled(),
			X:        rect.Origin.X,
			Y:        rect.Origin.Y,
			Width:    rect.Size.Width,
			Height:   rect.Size.Height,
		}
		for _, il := range bl.InputLayouts() {
			ji := jsonInput{
				Name:   il.Input().Name(),
				Kind:   il.Input().Kind().String(),
				Blocks: buildJSONBlocks(il.RenderedGroup()),
			}
			for _, fl := range il.FieldLayouts() {
				fr := fl.ViewRect()
				ji.Fields = append(ji.Fields, jsonField{
					Name:   fl.Field().Name(),
					Kind:   fl.Field().Kind().String(),
					Text:   fl.Field().Text(),
					X:      fr.Origin.X,
					Y:      fr.Origin.Y,
					Width:  fr.Size.Width,
					Height: fr.Size.Height,
				})
			}
			jb.Inputs = append(jb.Inputs, ji)
		}
		blocks = append(blocks, jb)
	}
	return blocks
}

func buildJSONConnections(g *layout.BlockGroupLayout) []jsonConnection {
	var conns []jsonConnection
	for _, bl := range g.BlockLayouts() {
		for _, conn := range bl.Block().Connections() {
			jc := jsonConnection{
				From: bl.Block().ID(),
				Kind: conn.Kind().String(),
				X:    conn.Position().X,
				Y:    conn.Position().Y,
			}
			if t := conn.Target(); t != nil {
				jc.To = t.SourceBlock().ID()
			}
			if st := conn.ShadowTarget(); st != nil {
				jc.Shadow = st.SourceBlock().ID()
			}
			conns = append(conns, jc)
		}
		for _, il := range bl.InputLayouts() {
			conns = append(conns, buildJSONConnections(il.RenderedGroup())...)
		}
	}
	return conns
}
