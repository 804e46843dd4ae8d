// Package extract converts uploaded study files into plain text.
// Extraction failures never propagate past this boundary: each file in a
// batch gets its own outcome and a broken file does not abort the rest.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sanadsad75/exam-prep-assistant/internal/model"
)

// pptxFallback mirrors the upstream behavior for archives we can open but
// cannot get any text out of.
const pptxFallback = "PowerPoint file uploaded but could not extract text content. Please ensure the file is not corrupted."

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Upload names one saved upload: its path on disk plus the metadata of
// the original file. The original filename's extension drives format
// detection.
type Upload struct {
	Path     string
	Filename string
	URL      string
	MimeType string
	Size     int64
}

// Batch extracts every upload in order. A failed file keeps its slot in
// the result with the error captured; images produce placeholder text and
// are additionally collected for display.
func Batch(uploads []Upload) ([]model.ParsedDocument, []model.Image) {
	documents := make([]model.ParsedDocument, 0, len(uploads))
	var images []model.Image

	for _, up := range uploads {
		text, isImage, err := File(up.Path, up.Filename)
		doc := model.ParsedDocument{Filename: up.Filename, URL: up.URL}
		if err != nil {
			doc.Error = err.Error()
			slog.Warn("extraction failed", "file", up.Filename, "error", err)
		} else {
			doc.Content = text
			doc.IsImage = isImage
			if isImage {
				images = append(images, model.Image{
					Filename: up.Filename,
					URL:      up.URL,
					MimeType: up.MimeType,
					Size:     up.Size,
				})
			}
		}
		documents = append(documents, doc)
	}

	return documents, images
}

// File extracts text from the file at path, picking the parser by the
// extension of name. Images yield no usable text, only a placeholder, and
// report isImage true. Unknown extensions are an error.
func File(path, name string) (text string, isImage bool, err error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".pdf":
		text, err = extractPDF(path)
		return text, false, err
	case ext == ".docx" || ext == ".doc":
		text, err = extractDOCX(path)
		return text, false, err
	case ext == ".pptx" || ext == ".ppt":
		text, err = extractPPTX(path)
		return text, false, err
	case ext == ".txt" || ext == ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", false, fmt.Errorf("read text file: %w", err)
		}
		return string(data), false, nil
	case imageExts[ext]:
		return "[Image: " + name + "]", true, nil
	default:
		return "", false, fmt.Errorf("unsupported file type: %s", ext)
	}
}

func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// extractDOCX pulls the run text out of word/document.xml. A .docx file
// is a zip archive; legacy binary .doc files fail at the zip layer and
// surface as a per-file extraction error.
func extractDOCX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer archive.Close()

	for _, f := range archive.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		text, err := xmlText(rc, "t", "p")
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("parse docx: %w", err)
		}
		return strings.TrimSpace(text), nil
	}
	return "", errors.New("docx: word/document.xml not found")
}

// extractPPTX walks the slide XML files in order, prefixing each slide's
// text with a slide marker. An archive that opens but yields no text
// falls back to a fixed notice instead of an error.
func extractPPTX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open pptx: %w", err)
	}
	defer archive.Close()

	var slides []*zip.File
	for _, f := range archive.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	var sb strings.Builder
	for i, f := range slides {
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", f.Name, err)
		}
		text, err := xmlText(rc, "t", "p")
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", f.Name, err)
		}
		sb.WriteString(fmt.Sprintf("\n--- Slide %d ---\n", i+1))
		sb.WriteString(text)
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return pptxFallback, nil
	}
	return out, nil
}

func slideNumber(name string) int {
	base := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	n, err := strconv.Atoi(base)
	if err != nil {
		return 0
	}
	return n
}

// xmlText collects the character data of every <textLocal> element,
// inserting a newline at the end of each <breakLocal> element. Office XML
// keeps visible text in w:t (docx) and a:t (pptx) runs grouped into
// w:p / a:p paragraphs.
func xmlText(r io.Reader, textLocal, breakLocal string) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textLocal {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == textLocal {
				inText = false
			}
			if t.Name.Local == breakLocal {
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
