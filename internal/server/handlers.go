package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/trailscan/internal/detection"
	"github.com/ironsheep/trailscan/internal/imaging"
	"github.com/ironsheep/trailscan/internal/pipeline"
	"github.com/ironsheep/trailscan/internal/survey"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "frame_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "frame_detect":
		return s.handleFrameDetect(ctx, args)
	case "frame_mask":
		return s.handleFrameMask(ctx, args)
	case "file_detect":
		return s.handleFileDetect(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type frameArgs struct {
	Run    int    `json:"run"`
	Camcol int    `json:"camcol"`
	Filter string `json:"filter"`
	Field  int    `json:"field"`
}

func parseFrameArgs(args json.RawMessage) (survey.FrameID, error) {
	var a frameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return survey.FrameID{}, err
	}
	band, err := survey.ParseBand(a.Filter)
	if err != nil {
		return survey.FrameID{}, err
	}
	return survey.FrameID{Run: a.Run, Camcol: a.Camcol, Filter: band, Field: a.Field}, nil
}

// PassSummary reports one pass of a detection.
type PassSummary struct {
	Pass       detection.Pass           `json:"pass"`
	Rectangles int                      `json:"rectangles"`
	Accepted   int                      `json:"accepted"`
	Rejections map[detection.Reason]int `json:"rejections"`
}

// TrailResult is returned by frame_detect and file_detect.
type TrailResult struct {
	Frame        string                    `json:"frame,omitempty"`
	Trails       []Trail                   `json:"trails"`
	Passes       []PassSummary             `json:"passes"`
	MaskedPixels int                       `json:"masked_pixels"`
	Warnings     []detection.SourceWarning `json:"warnings,omitempty"`
}

// Trail is one accepted detection.
type Trail struct {
	P1    detection.Point `json:"p1"`
	P2    detection.Point `json:"p2"`
	Pass  detection.Pass  `json:"pass"`
	Theta float64         `json:"theta"`
	Rho   float64         `json:"rho"`
	Votes int             `json:"votes"`
}

func newTrailResult(res *pipeline.FrameResult) *TrailResult {
	out := &TrailResult{
		Trails:       make([]Trail, 0, len(res.Detections)),
		MaskedPixels: res.Masked,
		Warnings:     res.Warnings,
	}
	for _, d := range res.Detections {
		out.Trails = append(out.Trails, Trail{P1: d.P1, P2: d.P2, Pass: d.Pass, Theta: d.Theta, Rho: d.Rho, Votes: d.Votes})
	}
	for _, p := range res.Passes {
		out.Passes = append(out.Passes, PassSummary{
			Pass:       p.Pass,
			Rectangles: p.Rectangles,
			Accepted:   len(p.Detections),
			Rejections: p.Rejections,
		})
	}
	return out
}

func (s *Server) handleFrameDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	id, err := parseFrameArgs(args)
	if err != nil {
		return nil, err
	}
	frame, err := s.store.Image(ctx, id)
	if err != nil {
		return nil, err
	}
	sources, err := s.store.Sources(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.detector.Detect(ctx, id, frame, sources)
	if err != nil {
		return nil, err
	}
	out := newTrailResult(res)
	out.Frame = id.String()
	return out, nil
}

// MaskResult is returned by frame_mask.
type MaskResult struct {
	Frame        string                    `json:"frame"`
	Width        int                       `json:"width"`
	Height       int                       `json:"height"`
	Sources      int                       `json:"sources"`
	MaskedPixels int                       `json:"masked_pixels"`
	Coverage     float64                   `json:"coverage"`
	Warnings     []detection.SourceWarning `json:"warnings,omitempty"`
}

func (s *Server) handleFrameMask(ctx context.Context, args json.RawMessage) (interface{}, error) {
	id, err := parseFrameArgs(args)
	if err != nil {
		return nil, err
	}
	frame, err := s.store.Image(ctx, id)
	if err != nil {
		return nil, err
	}
	sources, err := s.store.Sources(ctx, id)
	if err != nil {
		return nil, err
	}

	mask, warnings := detection.BuildMask(frame.Width, frame.Height, sources, id.Filter, s.mask)
	masked := mask.Count()
	return &MaskResult{
		Frame:        id.String(),
		Width:        frame.Width,
		Height:       frame.Height,
		Sources:      len(sources),
		MaskedPixels: masked,
		Coverage:     float64(masked) / float64(frame.Width*frame.Height),
		Warnings:     warnings,
	}, nil
}

type fileDetectArgs struct {
	ImagePath   string `json:"image_path"`
	CatalogPath string `json:"catalog_path"`
	Filter      string `json:"filter"`
}

func (s *Server) handleFileDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a fileDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ImagePath == "" {
		return nil, fmt.Errorf("image_path is required")
	}
	if a.Filter == "" {
		a.Filter = string(survey.BandR)
	}
	band, err := survey.ParseBand(a.Filter)
	if err != nil {
		return nil, err
	}

	frame, err := imaging.LoadFrame(a.ImagePath, s.fluxMax)
	if err != nil {
		return nil, err
	}
	var sources []survey.CatalogSource
	if a.CatalogPath != "" {
		if sources, err = s.files.Load(a.CatalogPath); err != nil {
			return nil, err
		}
	}

	res, err := s.detector.Detect(ctx, survey.FrameID{Filter: band}, frame, sources)
	if err != nil {
		return nil, err
	}
	return newTrailResult(res), nil
}
