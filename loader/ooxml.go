package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// xmlNode keeps child order, which struct decoding of mixed runs and breaks would lose.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

func (n *xmlNode) child(local string) *xmlNode {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			return &n.Nodes[i]
		}
	}
	return nil
}

func (n *xmlNode) children(local string) []*xmlNode {
	var out []*xmlNode
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			out = append(out, &n.Nodes[i])
		}
	}
	return out
}

// text walks the subtree in document order, keeping <t> content and turning
// tabs and line breaks into whitespace.
func (n *xmlNode) text(b *strings.Builder) {
	switch n.XMLName.Local {
	case "t":
		b.WriteString(n.Content)
		return
	case "tab":
		b.WriteByte('\t')
		return
	case "br", "cr":
		b.WriteByte('\n')
		return
	}
	for i := range n.Nodes {
		n.Nodes[i].text(b)
	}
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func openZipEntry(zr *zip.Reader, name string) (io.ReadCloser, error) {
	f := findZipFile(zr, name)
	if f == nil {
		return nil, fmt.Errorf("missing part %s", name)
	}
	return f.Open()
}

func decodeZipEntry(zr *zip.Reader, name string, v any) error {
	rc, err := openZipEntry(zr, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
