package extractors

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/hazyhaar/kreuzberg"
	"github.com/hazyhaar/kreuzberg/ocr"
)

// PDFExtractor extracts the native text layer through pdfcpu, then
// decides per document whether to run OCR on the embedded page images.
// OCR results are cached by image content hash.
type PDFExtractor struct {
	reg   *kreuzberg.Registries
	cache *ocr.Cache
}

func NewPDFExtractor(reg *kreuzberg.Registries, cache *ocr.Cache) *PDFExtractor {
	if cache == nil {
		cache = ocr.NewCache("")
	}
	return &PDFExtractor{reg: reg, cache: cache}
}

func (p *PDFExtractor) Name() string                 { return "pdf" }
func (p *PDFExtractor) Version() string              { return "1.0.0" }
func (p *PDFExtractor) Initialize() error            { return nil }
func (p *PDFExtractor) Shutdown() error              { return nil }
func (p *PDFExtractor) Priority() int                { return 10 }
func (p *PDFExtractor) SupportedMimeTypes() []string { return []string{"application/pdf"} }

func (p *PDFExtractor) Extract(ctx context.Context, in kreuzberg.Input, cfg *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	if cfg == nil {
		cfg = kreuzberg.DefaultConfig()
	}
	data, err := inputData(in)
	if err != nil {
		return nil, err
	}
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, kreuzberg.NewParsingError("read pdf", err)
	}

	res := &kreuzberg.ExtractionResult{MimeType: "application/pdf"}
	res.Metadata.PageCount = pctx.PageCount

	var native strings.Builder
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		pageText := extractPageText(pctx, pageNr)
		res.Pages = append(res.Pages, kreuzberg.PageContent{Number: pageNr, Content: pageText})
		if pageText != "" {
			if native.Len() > 0 {
				native.WriteByte('\n')
			}
			native.WriteString(pageText)
		}
	}
	res.Metadata.Title = firstLine(native.String())

	decision := ocr.EvaluateNativeText(native.String(), pctx.PageCount)
	res.Metadata.Set("ocr_fallback", decision.UseOCR)
	if decision.UseOCR || cfg.ForceOCR {
		if !hasImageStreams(pctx) {
			res.Metadata.Set("ocr_skipped", "no image streams")
		} else if err := p.runOCR(ctx, pctx, cfg, res, native.Len() > 0); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// runOCR recognizes the embedded images of every page and merges the
// recognized text into the page contents. hasNative softens a missing
// backend into an annotation instead of a failure.
func (p *PDFExtractor) runOCR(ctx context.Context, pctx *model.Context, cfg *kreuzberg.ExtractionConfig, res *kreuzberg.ExtractionResult, hasNative bool) error {
	backend, err := p.reg.OcrBackends.Get(cfg.OCR.Backend)
	if err != nil {
		if hasNative {
			res.Metadata.Set("ocr_skipped", err.Error())
			return nil
		}
		return kreuzberg.NewOcrError("no usable ocr backend for image-only pdf", err)
	}
	cache := cacheFor(p.cache, cfg)

	ocrRan := false
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		images, err := pdfcpu.ExtractPageImages(pctx, pageNr, false)
		if err != nil {
			continue
		}
		objNrs := make([]int, 0, len(images))
		for nr := range images {
			objNrs = append(objNrs, nr)
		}
		sort.Ints(objNrs)

		var pageOCR strings.Builder
		for idx, nr := range objNrs {
			img := images[nr]
			imgData, err := io.ReadAll(img)
			if err != nil || len(imgData) == 0 {
				continue
			}
			res.Images = append(res.Images, kreuzberg.ExtractedImage{
				Data:       imgData,
				MimeType:   imageMimeType(img.FileType),
				PageNumber: pageNr,
				Index:      idx,
			})
			ocrRes, err := p.recognize(ctx, backend, cache, imgData, cfg)
			if err != nil {
				return err
			}
			if text := strings.TrimSpace(ocrRes.Content); text != "" {
				if pageOCR.Len() > 0 {
					pageOCR.WriteByte('\n')
				}
				pageOCR.WriteString(text)
			}
			res.Tables = append(res.Tables, retagTables(ocrRes.Tables, pageNr)...)
		}
		if pageOCR.Len() > 0 {
			ocrRan = true
			page := &res.Pages[pageNr-1]
			if page.Content == "" {
				page.Content = pageOCR.String()
			} else {
				page.Content += "\n" + pageOCR.String()
			}
		}
	}
	if ocrRan {
		res.Metadata.Set("ocr_applied", true)
		res.Metadata.Set("ocr_backend", backend.BackendType())
	}
	return nil
}

// recognize runs one image through the cache, then the backend.
func (p *PDFExtractor) recognize(ctx context.Context, backend kreuzberg.OcrBackend, cache *ocr.Cache, imgData []byte, cfg *kreuzberg.ExtractionConfig) (*kreuzberg.ExtractionResult, error) {
	hash := ocr.HashImage(imgData)
	cfgStr := cfg.OCR.ConfigString()
	if cfg.UseCache {
		cached, err := cache.Get(hash, backend.BackendType(), cfgStr)
		if err != nil {
			cfg.Logger.Debug("ocr cache read failed", "error", err)
		} else if cached != nil {
			return cachedToResult(cached), nil
		}
	}
	ocrRes, err := backend.ProcessImage(ctx, imgData, cfg.OCR)
	if err != nil {
		return nil, err
	}
	if cfg.UseCache {
		if err := cache.Set(hash, backend.BackendType(), cfgStr, resultToCached(ocrRes)); err != nil {
			cfg.Logger.Debug("ocr cache write failed", "error", err)
		}
	}
	return ocrRes, nil
}

func retagTables(tables []kreuzberg.Table, pageNr int) []kreuzberg.Table {
	for i := range tables {
		tables[i].PageNumber = pageNr
	}
	return tables
}

func imageMimeType(fileType string) string {
	switch strings.ToLower(fileType) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tif", "tiff":
		return "image/tiff"
	case "":
		return "application/octet-stream"
	default:
		return "image/" + strings.ToLower(fileType)
	}
}

// extractPageText pulls text-showing operators out of one page's content
// stream.
func extractPageText(pctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return extractTextFromStream(data)
}

// hasImageStreams reports whether the document embeds image XObjects.
func hasImageStreams(pctx *model.Context) bool {
	if pctx.Optimize != nil {
		for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(pctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range pctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

// pdfStringRe matches PDF string literals in parentheses.
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// extractTextFromStream parses content stream text operators: Tj, TJ,
// the ' shorthand, and the positioning operators Td, TD, and T* that
// imply spacing.
func extractTextFromStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if bytes.HasSuffix(line, []byte("Tj")) || bytes.HasSuffix(line, []byte("TJ")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteString(text)
				}
			}
		}

		if bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteByte('\n')
					sb.WriteString(text)
				}
			}
		}

		if bytes.HasSuffix(line, []byte("Td")) || bytes.HasSuffix(line, []byte("TD")) {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		}

		if bytes.Equal(line, []byte("T*")) {
			sb.WriteByte('\n')
		}
	}

	return cleanPDFText(sb.String())
}

// decodePDFString handles backslash escapes, including octal.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// cleanPDFText collapses whitespace runs and drops non-printable runes.
func cleanPDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
