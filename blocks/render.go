package blocks

// RenderContext carries the viewer-dependent inputs of a render pass.
type RenderContext struct {
	Mode     string // builder | traveler
	Unlocked bool   // traveler only; builder ignores gating
}

// RenderBlock produces the JSON view of a single block, or (nil, false) when
// the block type has no registered entry and must be omitted.
//
// In traveler mode a with_code block renders a locked placeholder until the
// session is unlocked: id, type and title only, payload fields never included.
func RenderBlock(ctx RenderContext, b Block) (map[string]any, bool) {
	entry, ok := Lookup(b.Type)
	if !ok {
		return nil, false
	}
	view := map[string]any{
		"id":    b.ID,
		"type":  string(b.Type),
		"title": b.Title,
	}
	gated := b.Visibility.Mode == ModeWithCode
	if ctx.Mode == ModeTraveler {
		view["visibility"] = map[string]any{"mode": b.Visibility.Mode}
		if gated && !ctx.Unlocked {
			view["locked"] = true
			return view, true
		}
	} else {
		vis := map[string]any{"mode": b.Visibility.Mode}
		if gated {
			vis["unlock_code"] = b.Visibility.UnlockCode
		}
		view["visibility"] = vis
	}
	view["data"] = entry.Render(b)
	return view, true
}

// RenderBlocks renders a block sequence in its given order. Blocks with an
// unregistered type are skipped; everything else keeps its position.
func RenderBlocks(ctx RenderContext, bs []Block) []map[string]any {
	out := make([]map[string]any, 0, len(bs))
	for _, b := range bs {
		if view, ok := RenderBlock(ctx, b); ok {
			out = append(out, view)
		}
	}
	return out
}
