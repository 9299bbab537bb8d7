//go:build js && wasm

// WASM build of the geometry core, so clients can preview rectangle
// detection locally before the stroke round-trips through the server.
package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inkfinity/inkfinity/backend-go/internal/cluster"
	"github.com/inkfinity/inkfinity/backend-go/internal/detect"
	"github.com/inkfinity/inkfinity/backend-go/internal/geom"
	"github.com/inkfinity/inkfinity/backend-go/internal/stroke"
)

func main() {
	core := js.Global().Get("Object").New()

	core.Set("detectRectangle", js.FuncOf(detectRectangle))
	core.Set("strokesInArea", js.FuncOf(strokesInArea))
	core.Set("relatedStrokes", js.FuncOf(relatedStrokes))

	js.Global().Set("inkfinityCore", core)
	js.Global().Set("inkfinityWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// detectRectangle(pointsJSON, cameraJSON) -> result JSON or null.
// cameraJSON may be the empty string.
func detectRectangle(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}

	var points []geom.Point
	if err := json.Unmarshal([]byte(args[0].String()), &points); err != nil {
		return errJSON(err)
	}

	opts := detect.DefaultOptions()
	if len(args) > 1 && args[1].String() != "" {
		var cam detect.Camera
		if err := json.Unmarshal([]byte(args[1].String()), &cam); err != nil {
			return errJSON(err)
		}
		opts.Camera = &cam
	}

	res := detect.Detect(points, opts)
	if res == nil {
		return nil
	}
	out, err := json.Marshal(res)
	if err != nil {
		return errJSON(err)
	}
	return string(out)
}

// strokesInArea(cornersJSON, strokesJSON, strict) -> JSON array of stroke IDs.
func strokesInArea(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}

	var corners [4]geom.Point
	if err := json.Unmarshal([]byte(args[0].String()), &corners); err != nil {
		return errJSON(err)
	}
	pool, err := decodeStrokes(args[1].String())
	if err != nil {
		return errJSON(err)
	}

	found := cluster.FindStrokesInArea(corners, pool, args[2].Bool(), cluster.DefaultOptions())
	return idsJSON(found)
}

// relatedStrokes(seedID, strokesJSON, maxCount) -> JSON array of stroke IDs.
func relatedStrokes(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}

	pool, err := decodeStrokes(args[1].String())
	if err != nil {
		return errJSON(err)
	}

	seedID := args[0].String()
	var seed *stroke.Stroke
	for _, s := range pool {
		if s.ID == seedID {
			seed = s
			break
		}
	}
	if seed == nil {
		return nil
	}

	found := cluster.FindRelatedStrokes(seed, pool, args[2].Int(), cluster.DefaultOptions())
	return idsJSON(found)
}

func decodeStrokes(raw string) ([]*stroke.Stroke, error) {
	var pool []*stroke.Stroke
	if err := json.Unmarshal([]byte(raw), &pool); err != nil {
		return nil, err
	}
	for _, s := range pool {
		s.Recompute()
	}
	return pool, nil
}

func idsJSON(strokes []*stroke.Stroke) interface{} {
	ids := make([]string, len(strokes))
	for i, s := range strokes {
		ids[i] = s.ID
	}
	out, err := json.Marshal(ids)
	if err != nil {
		return errJSON(err)
	}
	return string(out)
}

func errJSON(err error) string {
	out, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(out)
}
