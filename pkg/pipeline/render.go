package pipeline

import (
	"context"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
	"github.com/matzehuels/layerkit/pkg/graph"
	"github.com/matzehuels/layerkit/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats. The DOT
// source is built once and shared by the dot, svg and png outputs.
func Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var dot string

	for _, format := range opts.Formats {
		if format != FormatJSON && dot == "" {
			dot = nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed})
		}

		var data []byte
		var err error
		switch format {
		case FormatJSON:
			data, err = graph.MarshalLayout(l)
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, opts.Scale)
		default:
			return nil, lkerrors.New(lkerrors.ErrCodeInvalidConfig, "unsupported format: %s", format)
		}

		if err != nil {
			code := lkerrors.GetCode(err)
			if code == "" {
				code = lkerrors.ErrCodeInternal
			}
			return nil, lkerrors.Wrap(code, err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// RenderFromLayoutData renders output from serialized layout data.
// This is useful when the layout was computed elsewhere (e.g., cached).
func RenderFromLayoutData(ctx context.Context, layoutData []byte, opts Options) (map[string][]byte, error) {
	l, err := graph.UnmarshalLayout(layoutData)
	if err != nil {
		return nil, lkerrors.Wrap(lkerrors.ErrCodeInvalidFormat, err, "parse layout")
	}
	return Render(ctx, l, opts)
}
