package loader

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	pptxPresentationPart = "ppt/presentation.xml"
	pptxPresentationRels = "ppt/_rels/presentation.xml.rels"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type elementKind int

const (
	elementNonText elementKind = iota
	elementTextBearing
)

// slideElement is one top-level entry of a slide's shape tree, classified
// before any text is read.
type slideElement struct {
	kind elementKind
	node xmlNode
}

func classifyElement(n xmlNode) slideElement {
	if n.XMLName.Local == "sp" && n.child("txBody") != nil {
		return slideElement{kind: elementTextBearing, node: n}
	}
	return slideElement{kind: elementNonText, node: n}
}

// text joins the paragraphs of a text-bearing shape with newlines.
func (e slideElement) text() string {
	if e.kind != elementTextBearing {
		return ""
	}
	body := e.node.child("txBody")
	var lines []string
	for _, p := range body.children("p") {
		var b strings.Builder
		p.text(&b)
		lines = append(lines, b.String())
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

type PPTXExtractor struct{}

func NewPPTXExtractor() *PPTXExtractor {
	return &PPTXExtractor{}
}

func (e *PPTXExtractor) Format() Format { return FormatPPTX }

func (e *PPTXExtractor) Extensions() []string { return []string{".pptx"} }

// Extract collects, slide after slide, the text of every shape that carries a
// text body. Pictures, tables, connectors and groups are skipped.
func (e *PPTXExtractor) Extract(path string) Result {
	return guard(FormatPPTX, func() (string, error) {
		zr, err := zip.OpenReader(path)
		if err != nil {
			return "", err
		}
		defer zr.Close()

		slides, err := slideParts(&zr.Reader)
		if err != nil {
			return "", err
		}

		var chunks []string
		for _, name := range slides {
			elements, err := readSlideElements(&zr.Reader, name)
			if err != nil {
				return "", err
			}
			for _, el := range elements {
				if txt := el.text(); txt != "" {
					chunks = append(chunks, txt)
				}
			}
		}
		return strings.Join(chunks, "\n\n"), nil
	})
}

type pptxPresentation struct {
	SlideIDs []struct {
		Attrs []xml.Attr `xml:",any,attr"`
	} `xml:"sldIdLst>sldId"`
}

type pptxRelationships struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// slideParts returns slide part names in presentation order, falling back to
// the numeric order of ppt/slides/slideN.xml when the manifest is unusable.
func slideParts(zr *zip.Reader) ([]string, error) {
	if parts, err := orderedSlideParts(zr); err == nil && len(parts) > 0 {
		return parts, nil
	}

	type numbered struct {
		name string
		n    int
	}
	var found []numbered
	for _, f := range zr.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		found = append(found, numbered{name: f.Name, n: n})
	}
	if len(found) == 0 {
		if findZipFile(zr, pptxPresentationPart) == nil {
			return nil, errors.New("not a presentation: missing ppt/presentation.xml")
		}
		return nil, nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	parts := make([]string, len(found))
	for i, f := range found {
		parts[i] = f.name
	}
	return parts, nil
}

func orderedSlideParts(zr *zip.Reader) ([]string, error) {
	var pres pptxPresentation
	if err := decodeZipEntry(zr, pptxPresentationPart, &pres); err != nil {
		return nil, err
	}
	var rels pptxRelationships
	if err := decodeZipEntry(zr, pptxPresentationRels, &rels); err != nil {
		return nil, err
	}

	targets := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		targets[rel.ID] = rel.Target
	}

	var parts []string
	for _, sld := range pres.SlideIDs {
		for _, attr := range sld.Attrs {
			// r:id is the namespaced attribute; the bare id is the numeric slide id
			if attr.Name.Local != "id" || attr.Name.Space == "" {
				continue
			}
			target, found := targets[attr.Value]
			if !found {
				return nil, errors.New("dangling slide relationship " + attr.Value)
			}
			parts = append(parts, resolvePart("ppt", target))
		}
	}
	return parts, nil
}

func resolvePart(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(base, target)
}

func readSlideElements(zr *zip.Reader, name string) ([]slideElement, error) {
	rc, err := openZipEntry(zr, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		stack    []string
		elements []slideElement
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) > 0 && stack[len(stack)-1] == "spTree" {
				var n xmlNode
				if err := dec.DecodeElement(&n, &t); err != nil {
					return nil, err
				}
				elements = append(elements, classifyElement(n))
				continue
			}
			stack = append(stack, t.Name.Local)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return elements, nil
}
