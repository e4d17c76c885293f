package drawer

import (
	"fmt"
	"io"
	"os"
	"slices"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-postprocess/pkg/postprocess/measure"
	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

// DOTDrawer renders a plan as a Graphviz DOT document.
type DOTDrawer struct {
	graph    graph.Graph[string, string]
	steps    []string
	out      io.Writer
	fileName string
	options  []DOTOption
}

// DOTOption customises the rendered document.
type DOTOption func(*description)

// NewDOTDrawer creates a drawer writing to out.
func NewDOTDrawer(out io.Writer, options ...DOTOption) *DOTDrawer {
	return &DOTDrawer{
		out:     out,
		graph:   graph.New(graph.StringHash, graph.Directed()),
		options: options,
	}
}

// NewFileDrawer creates a drawer writing to fileName when Draw is called.
func NewFileDrawer(fileName string, options ...DOTOption) *DOTDrawer {
	return &DOTDrawer{
		fileName: fileName,
		graph:    graph.New(graph.StringHash, graph.Directed()),
		options:  options,
	}
}

var kindColors = map[model.Kind][3]uint8{
	model.KindClassProbabilities:    {70, 130, 180},
	model.KindClassPredictions:      {60, 179, 113},
	model.KindRegressionPredictions: {218, 165, 32},
	model.KindAny:                   {128, 128, 128},
}

func kindColor(kind model.Kind) (string, error) {
	rgb, ok := kindColors[kind]
	if !ok {
		rgb = kindColors[model.KindAny]
	}

	c, err := colors.RGB(rgb[0], rgb[1], rgb[2]) //nolint
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}

	return c.ToHEX().String(), nil
}

// AddStep adds a step to the plan graph.
func (d *DOTDrawer) AddStep(name string, kind model.Kind) error {
	color, err := kindColor(kind)
	if err != nil {
		return err
	}

	err = d.graph.AddVertex(name, graph.VertexAttribute("color", color))
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", name)
	}

	d.steps = append(d.steps, name)

	return nil
}

// AddLink adds a link between parent and children steps.
func (d *DOTDrawer) AddLink(parentName, childrenName string, kind model.Kind) error {
	color, err := kindColor(kind)
	if err != nil {
		return err
	}

	err = d.graph.AddEdge(parentName, childrenName,
		graph.EdgeAttribute("label", kind.String()),
		graph.EdgeAttribute("color", color),
	)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childrenName)
	}

	return nil
}

// Draw writes the DOT document.
func (d *DOTDrawer) Draw() error {
	if d.fileName == "" {
		return d.write(d.out)
	}

	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}

	return d.writeAndClose(file)
}

func (d *DOTDrawer) write(out io.Writer) error {
	err := dot(d.graph, d.steps, out, d.options...)
	if err != nil {
		return errors.Wrap(err, "unable to write dot")
	}

	return nil
}

// writeAndClose reports the close error of out when the document was written.
func (d *DOTDrawer) writeAndClose(out io.WriteCloser) error {
	err := d.write(out)
	closeErr := out.Close()

	if err != nil {
		return err
	}

	if closeErr != nil {
		return errors.Wrapf(closeErr, "unable to close file %s", d.fileName)
	}

	return nil
}

const maxRGB = 240

// AddMeasure labels every step with its average duration and colours it from
// blue, the fastest, to red, the slowest.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	metrics := msr.AllMetrics()

	var minValue, maxValue time.Duration

	first := true

	for _, name := range d.steps {
		mt, ok := metrics[name]
		if !ok || name == model.EndOperation.Name || mt.AVGDuration() == 0 {
			continue
		}

		avg := mt.AVGDuration()
		if first || avg < minValue {
			minValue = avg
		}

		if first || avg > maxValue {
			maxValue = avg
		}

		first = false
	}

	for _, name := range d.steps {
		mt, ok := metrics[name]
		if !ok {
			continue
		}

		err := d.updateMetric(name, mt, minValue, maxValue)
		if err != nil {
			return errors.Wrapf(err, "unable to update %s metrics", name)
		}
	}

	return nil
}

func (d *DOTDrawer) updateMetric(name string, mt measure.Metric, minValue, maxValue time.Duration) error {
	_, properties, err := d.graph.VertexWithProperties(name)
	if err != nil {
		return errors.Wrap(err, "unable to get vertex properties")
	}

	if mt.GetTotalDuration() > 0 {
		properties.Attributes["xlabel"] = "total: " + mt.GetTotalDuration().String()

		return nil
	}

	stepAvg := mt.AVGDuration()
	if stepAvg != 0 {
		properties.Attributes["xlabel"] = fmt.Sprintf("avg: %s, runs: %d", stepAvg, mt.Count())

		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(stepAvg-minValue) / float64(maxValue-minValue)
		}

		red := maxRGB * fraction
		blue := maxRGB - red

		c, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		properties.Attributes["fontcolor"] = c.ToHEX().String()
	}

	if mt.Errors() > 0 {
		properties.Attributes["xlabel"] += fmt.Sprintf(", errors: %d", mt.Errors())
		properties.Attributes["penwidth"] = "3"
	}

	for parent, info := range mt.AllInputs() {
		err := d.graph.UpdateEdge(parent, name,
			graph.EdgeAttribute("headlabel", fmt.Sprintf("%d rows", info.Rows)),
			graph.EdgeAttribute("fontcolor", "blue"),
		)
		if err != nil && !errors.Is(err, graph.ErrEdgeNotFound) {
			return errors.Wrap(err, "unable to update edge")
		}
	}

	return nil
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           string
	Target           string
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

func dot(g graph.Graph[string, string], order []string, wrt io.Writer, options ...DOTOption) error {
	desc, err := generateDOT(g, order, options...)
	if err != nil {
		return errors.Wrap(err, "failed to generate DOT description")
	}

	return renderDOT(wrt, desc)
}

// GraphAttribute sets a graph level attribute such as label or rankdir.
func GraphAttribute(key, value string) DOTOption {
	return func(d *description) {
		d.Attributes[key] = value
	}
}

// generateDOT lists vertices in order so the output is stable between runs.
func generateDOT(gra graph.Graph[string, string], order []string, options ...DOTOption) (description, error) {
	desc := description{
		GraphType:    "digraph",
		Attributes:   map[string]string{"rankdir": "LR"},
		EdgeOperator: "->",
		Statements:   make([]statement, 0),
	}

	for _, option := range options {
		option(&desc)
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	for _, vertex := range order {
		_, sourceProperties, err := gra.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		attributes := make(map[string]string, len(sourceProperties.Attributes))
		htmlAttributes := make(map[string]string)

		for k, v := range sourceProperties.Attributes {
			if k == "xlabel" {
				htmlAttributes["label"] = fmt.Sprintf(`<%s <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, vertex, v)

				continue
			}

			attributes[k] = v
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: attributes,
			HTMLAttributes:   htmlAttributes,
		})

		targets := make([]string, 0, len(adjacencyMap[vertex]))
		for target := range adjacencyMap[vertex] {
			targets = append(targets, target)
		}

		slices.Sort(targets)

		for _, target := range targets {
			edge := adjacencyMap[vertex][target]
			desc.Statements = append(desc.Statements, statement{
				Source:         vertex,
				Target:         target,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
