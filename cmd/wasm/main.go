//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"strconv"
	"syscall/js"

	"orgmap/pkg/app"
	"orgmap/pkg/engine"
	"orgmap/pkg/schema"
	"orgmap/pkg/suggest"
)

// NOTE: each page loads its own WASM instance and the session lives in
// this instance's memory. JS callbacks run on the single Go thread, so no
// locking is needed.

var (
	state     = app.New(nil)
	suggester = suggest.NewHeuristic()
	token     int
)

func errorJSON(msg string) string {
	errJSON, _ := json.Marshal(map[string]string{"error": msg})
	return string(errJSON)
}

func viewJSON() any {
	resultJSON, err := json.Marshal(app.NewView(state))
	if err != nil {
		return errorJSON(err.Error())
	}
	return string(resultJSON)
}

// parse handles orgmapParse.
// args[0] = Uint8Array (CSV bytes)
// args[1] = string (file name)
// The heuristic suggestion is applied before returning unless the file name
// ends in _mapped.csv.
func parse(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorJSON("orgmapParse requires 2 arguments: Uint8Array and fileName")
	}
	data := make([]byte, args[0].Get("length").Int())
	js.CopyBytesToGo(data, args[0])
	fileName := args[1].String()

	res, err := app.Ingest(fileName, data)
	if err != nil {
		state = app.Reduce(state, app.UploadFailed{FileName: fileName, Err: err})
		return viewJSON()
	}

	token++
	tok := strconv.Itoa(token)
	state = app.Reduce(state, app.Uploaded{FileName: fileName, Token: tok, Result: res})
	if state.Suggestion == app.SuggestionIdle {
		state = app.Reduce(state, app.SuggestionStarted{Token: tok})
		sr, err := suggest.Run(context.Background(), suggester, state.Headers)
		state = app.Reduce(state, app.SuggestionReceived{Token: tok, Mapping: sr.Mapping, Err: err})
	}
	return viewJSON()
}

// setMapping handles orgmapSetMapping.
// args[0] = string (mapping JSON, field to header)
func setMapping(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorJSON("orgmapSetMapping requires 1 argument: mapping JSON")
	}
	// Invalid JSON resets every field to unmapped.
	m := schema.ParseColumnMapping(args[0].String())
	state = app.Reduce(state, app.MappingReplaced{Mapping: m})
	return viewJSON()
}

// apply handles orgmapApply.
func apply(this js.Value, args []js.Value) any {
	state = app.Reduce(state, app.MappingsApplied{})
	return viewJSON()
}

// setFacet handles orgmapSetFacet.
// args[0] = string (level, employeeType or teamProject)
// args[1] = string (JSON array of selected values)
func setFacet(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorJSON("orgmapSetFacet requires 2 arguments: field and values JSON")
	}
	f, ok := schema.ParseField(args[0].String())
	if !ok || !engine.IsFacet(f) {
		return errorJSON("not a filterable field: " + args[0].String())
	}
	var values []string
	if err := json.Unmarshal([]byte(args[1].String()), &values); err != nil {
		return errorJSON(err.Error())
	}
	state = app.Reduce(state, app.FacetChanged{Field: f, Values: values})
	return viewJSON()
}

// toggleCampus handles orgmapToggleCampus.
// args[0] = bool
func toggleCampus(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorJSON("orgmapToggleCampus requires 1 argument: bool")
	}
	state = app.Reduce(state, app.CampusToggled{On: args[0].Truthy()})
	return viewJSON()
}

// click handles orgmapClick.
// args[0] = string (clicked node JSON: {type, name, path})
func click(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorJSON("orgmapClick requires 1 argument: node JSON")
	}
	var ev engine.ClickEvent
	if err := json.Unmarshal([]byte(args[0].String()), &ev); err != nil {
		return errorJSON(err.Error())
	}
	c, err := engine.ParseClick(ev)
	if err != nil {
		return errorJSON(err.Error())
	}
	state = app.Reduce(state, app.NodeClicked{Click: c})
	return viewJSON()
}

// reset handles orgmapReset.
func reset(this js.Value, args []js.Value) any {
	state = app.Reduce(state, app.FiltersReset{})
	return viewJSON()
}

func main() {
	js.Global().Set("orgmapParse", js.FuncOf(parse))
	js.Global().Set("orgmapSetMapping", js.FuncOf(setMapping))
	js.Global().Set("orgmapApply", js.FuncOf(apply))
	js.Global().Set("orgmapSetFacet", js.FuncOf(setFacet))
	js.Global().Set("orgmapToggleCampus", js.FuncOf(toggleCampus))
	js.Global().Set("orgmapClick", js.FuncOf(click))
	js.Global().Set("orgmapReset", js.FuncOf(reset))

	// Block forever so the exported functions stay callable.
	select {}
}
