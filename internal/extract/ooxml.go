package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	nsWordML    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsDrawingML = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPresentML = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsMarkup    = "http://schemas.openxmlformats.org/markup-compatibility/2006"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func openZip(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	return zr, nil
}

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("missing part %s", name)
}

// extractDOCX emits one line per body paragraph.
func extractDOCX(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}
	part, err := readPart(zr, "word/document.xml")
	if err != nil {
		return "", err
	}

	dec := xml.NewDecoder(bytes.NewReader(part))
	var (
		out    strings.Builder
		para   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == nsMarkup && t.Name.Local == "Fallback" {
				if err := dec.Skip(); err != nil {
					return "", fmt.Errorf("parse document.xml: %w", err)
				}
				continue
			}
			if t.Name.Space != nsWordML {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != nsWordML {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteString(para.String())
				out.WriteByte('\n')
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	if para.Len() > 0 {
		out.WriteString(para.String())
		out.WriteByte('\n')
	}
	return out.String(), nil
}

// extractPPTX emits each text-bearing shape on its own line, slides in
// presentation order separated by a blank line.
func extractPPTX(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}
	slides, err := slideOrder(zr)
	if err != nil {
		return "", err
	}
	if len(slides) == 0 {
		return "", errors.New("presentation has no slides")
	}

	var out strings.Builder
	for _, name := range slides {
		part, err := readPart(zr, name)
		if err != nil {
			return "", err
		}
		shapes, err := slideShapes(part)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", name, err)
		}
		if len(shapes) == 0 {
			continue
		}
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		for _, s := range shapes {
			out.WriteString(s)
			out.WriteByte('\n')
		}
	}
	return out.String(), nil
}

// isTextFrame reports slide elements whose DrawingML paragraphs carry text.
// Tables live under graphicFrame, one paragraph per cell line.
func isTextFrame(local string) bool {
	return local == "sp" || local == "graphicFrame"
}

func slideShapes(part []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(part))
	var (
		shapes     []string
		paragraphs []string
		para       strings.Builder
		shapeDepth int
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Space == nsMarkup && t.Name.Local == "Fallback":
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			case t.Name.Space == nsPresentML && isTextFrame(t.Name.Local):
				shapeDepth++
			case shapeDepth > 0 && t.Name.Space == nsDrawingML && t.Name.Local == "t":
				inText = true
			case shapeDepth > 0 && t.Name.Space == nsDrawingML && t.Name.Local == "br":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch {
			case t.Name.Space == nsDrawingML && t.Name.Local == "t":
				inText = false
			case shapeDepth > 0 && t.Name.Space == nsDrawingML && t.Name.Local == "p":
				paragraphs = append(paragraphs, para.String())
				para.Reset()
			case t.Name.Space == nsPresentML && isTextFrame(t.Name.Local):
				shapeDepth--
				text := strings.Join(paragraphs, "\n")
				paragraphs = paragraphs[:0]
				if strings.TrimSpace(text) != "" {
					shapes = append(shapes, text)
				}
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return shapes, nil
}

type presentationXML struct {
	SlideIDs []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// slideOrder follows the presentation's slide list and falls back to the
// numeric order of slide parts when the list cannot be resolved.
func slideOrder(zr *zip.Reader) ([]string, error) {
	if ordered := listedSlides(zr); len(ordered) > 0 {
		return ordered, nil
	}

	type numbered struct {
		n    int
		name string
	}
	var parts []numbered
	for _, f := range zr.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, numbered{n: n, name: f.Name})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })

	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.name
	}
	return out, nil
}

func listedSlides(zr *zip.Reader) []string {
	presRaw, err := readPart(zr, "ppt/presentation.xml")
	if err != nil {
		return nil
	}
	relsRaw, err := readPart(zr, "ppt/_rels/presentation.xml.rels")
	if err != nil {
		return nil
	}
	var pres presentationXML
	if err := xml.Unmarshal(presRaw, &pres); err != nil {
		return nil
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(relsRaw, &rels); err != nil {
		return nil
	}

	targets := make(map[string]string, len(rels.Items))
	for _, rel := range rels.Items {
		target := rel.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join("ppt", target)
		}
		targets[rel.ID] = target
	}

	out := make([]string, 0, len(pres.SlideIDs))
	for _, sld := range pres.SlideIDs {
		target, ok := targets[sld.RelID]
		if !ok {
			return nil
		}
		out = append(out, target)
	}
	return out
}
