package engine

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"

	"github.com/davenhall/taskgraph/internal/graph"
	"github.com/davenhall/taskgraph/internal/model"
)

// ExportGraph traverses the graph around the task and serializes the
// snapshot in the requested format.
func (e *Engine) ExportGraph(ctx context.Context, taskID, format string, opts graph.TraverseOptions) (*model.GraphExport, error) {
	snap, err := e.GetDependencyGraph(ctx, taskID, opts)
	if err != nil {
		return nil, err
	}

	var data string
	switch format {
	case model.ExportJSON:
		data, err = exportJSON(snap)
	case model.ExportCSV:
		data, err = exportCSV(snap)
	case model.ExportGraphML:
		data, err = exportGraphML(snap)
	default:
		return nil, model.InputError(fmt.Sprintf("unknown export format %q", format))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export graph: %w", err)
	}
	return &model.GraphExport{Format: format, Data: data}, nil
}

func exportJSON(snap *model.DependencyGraphSnapshot) (string, error) {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// exportCSV writes one row per edge. Node metadata is not representable in
// this format; use json or graphml when it matters.
func exportCSV(snap *model.DependencyGraphSnapshot) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"source", "target", "type", "status"}); err != nil {
		return "", err
	}
	for _, e := range snap.Edges {
		if err := w.Write([]string{e.Source, e.Target, string(e.Type), string(e.Status)}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// graphml document shapes, kept private to the exporter.
type graphmlDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	XMLNS   string       `xml:"xmlns,attr"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

type graphmlKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
	Type string `xml:"attr.type,attr"`
}

type graphmlGraph struct {
	ID          string         `xml:"id,attr"`
	EdgeDefault string         `xml:"edgedefault,attr"`
	Nodes       []graphmlNode  `xml:"node"`
	Edges       []graphmlEdge  `xml:"edge"`
}

type graphmlNode struct {
	ID   string         `xml:"id,attr"`
	Data []graphmlDatum `xml:"data"`
}

type graphmlEdge struct {
	ID     string         `xml:"id,attr"`
	Source string         `xml:"source,attr"`
	Target string         `xml:"target,attr"`
	Data   []graphmlDatum `xml:"data"`
}

type graphmlDatum struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

func exportGraphML(snap *model.DependencyGraphSnapshot) (string, error) {
	doc := graphmlDoc{
		XMLNS: "http://graphml.graphdrawing.org/xmlns",
		Keys: []graphmlKey{
			{ID: "name", For: "node", Name: "name", Type: "string"},
			{ID: "status", For: "node", Name: "status", Type: "string"},
			{ID: "type", For: "edge", Name: "type", Type: "string"},
			{ID: "estatus", For: "edge", Name: "status", Type: "string"},
		},
		Graph: graphmlGraph{ID: snap.RootTaskID, EdgeDefault: "directed"},
	}
	for _, n := range snap.Nodes {
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphmlNode{
			ID: n.TaskID,
			Data: []graphmlDatum{
				{Key: "name", Value: n.Name},
				{Key: "status", Value: string(n.Status)},
			},
		})
	}
	for _, e := range snap.Edges {
		doc.Graph.Edges = append(doc.Graph.Edges, graphmlEdge{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
			Data: []graphmlDatum{
				{Key: "type", Value: string(e.Type)},
				{Key: "estatus", Value: string(e.Status)},
			},
		})
	}

	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(b) + "\n", nil
}
