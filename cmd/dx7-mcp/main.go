// Command dx7-mcp serves a voice collection to MCP clients over stdio.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fjl/dx7/collection"
	"github.com/fjl/dx7/dx7"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	flag.Parse()
	file := collection.DefaultFile
	if flag.NArg() > 0 {
		file = flag.Arg(0)
	}
	// stdout carries the protocol.
	log.SetOutput(os.Stderr)

	coll, err := collection.ReadFile(file)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("serving %s (%d voices)", file, coll.Len())

	s := server.NewMCPServer("DX7 collection", "1.0.0", server.WithToolCapabilities(false))
	t := &tools{coll: coll}
	s.AddTool(mcp.NewTool("dx7_collection-info",
		mcp.WithDescription("Returns the number of voices in the DX7 collection and their names."),
	), t.info)
	s.AddTool(mcp.NewTool("dx7_get-voice",
		mcp.WithDescription("Returns one voice of the collection as named DX7 parameters."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Voice index, starting at 0.")),
	), t.getVoice)
	s.AddTool(mcp.NewTool("dx7_get-voice-params",
		mcp.WithDescription("Returns the 156 unpacked parameter values of one voice, OP6 first."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Voice index, starting at 0.")),
	), t.getParams)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

type tools struct {
	coll *collection.Collection
}

type collectionInfo struct {
	Voices int      `json:"voices"`
	Names  []string `json:"names"`
}

func (t *tools) info(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log.Println("[mcp] collection info")
	info := collectionInfo{Voices: t.coll.Len(), Names: make([]string, t.coll.Len())}
	for i := range t.coll.Voices {
		info.Names[i] = t.coll.Voices[i].Name()
	}
	return jsonResult(info)
}

func (t *tools) getVoice(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := t.params(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p.Patch())
}

func (t *tools) getParams(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := t.params(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p[:])
}

func (t *tools) params(req mcp.CallToolRequest) (*dx7.Params, error) {
	index, err := req.RequireInt("index")
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= t.coll.Len() {
		return nil, fmt.Errorf("voice index %d out of range, collection has %d voices", index, t.coll.Len())
	}
	log.Println("[mcp] voice", index)
	p := dx7.Unpack(&t.coll.Voices[index])
	return &p, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	enc, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %v", err)
	}
	return mcp.NewToolResultText(string(enc)), nil
}
