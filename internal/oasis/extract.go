// Package oasis extracts flat records from CAISO OASIS ATL APNode XML reports.
package oasis

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/oasis-ingest/internal/model"
	"github.com/sells-group/oasis-ingest/internal/timeconv"
)

// DefaultNamespace is the OASIS report schema namespace.
const DefaultNamespace = "http://www.caiso.com/soa/OASISReport_v1.xsd"

// Element names of the report layout.
const (
	tagHeader  = "MessageHeader"
	tagPayload = "MessagePayload"
	tagRTO     = "RTO"
	tagName    = "name"
	tagItem    = "ATLS_ITEM"
)

// Extractor turns one report document into records.
type Extractor struct {
	lookup Lookup
	norm   *timeconv.Normalizer
	log    *zap.Logger
}

// NewExtractor creates an Extractor resolving namespace-qualified tags in ns.
// A nil norm uses the local zone; a nil log uses zap.L().
func NewExtractor(ns string, norm *timeconv.Normalizer, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.L()
	}
	if norm == nil {
		norm = timeconv.NewNormalizer(nil, log)
	}
	return &Extractor{lookup: NewLookup(ns), norm: norm, log: log}
}

// ExtractFile reads and extracts the report at path. The document is
// identified by its base name.
func (x *Extractor) ExtractFile(ctx context.Context, path string) ([]model.Record, error) {
	name := filepath.Base(path)
	f, err := os.Open(path)
	if err != nil {
		return nil, &ExtractionError{Document: name, Err: eris.Wrapf(err, "open %s", path)}
	}
	defer f.Close() //nolint:errcheck

	return x.Extract(ctx, name, f)
}

// Extract parses the report read from r and extracts it as document name.
func (x *Extractor) Extract(ctx context.Context, name string, r io.Reader) ([]model.Record, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, &ExtractionError{Document: name, Err: eris.Wrapf(ErrMalformedDocument, "%v", err)}
	}
	return x.ExtractDocument(ctx, name, doc)
}

// ExtractDocument flattens a parsed document: one record per ATLS_ITEM.
// Any missing required field rejects the whole document.
func (x *Extractor) ExtractDocument(ctx context.Context, name string, doc *Element) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ExtractionError{Document: name, Err: eris.Wrap(err, "context cancelled")}
	}

	header, err := x.lookup.Element(doc, tagHeader)
	if err != nil {
		return nil, withDocument(name, err)
	}
	payload, err := x.lookup.Element(doc, tagPayload)
	if err != nil {
		return nil, withDocument(name, err)
	}
	rto, err := x.lookup.Element(payload, tagRTO)
	if err != nil {
		return nil, withDocument(name, err)
	}
	nameEl, err := x.lookup.Element(rto, tagName)
	if err != nil {
		return nil, withDocument(name, err)
	}

	fr := &fieldReader{lookup: x.lookup, norm: x.norm.With(x.log.With(zap.String("file", name)))}

	h := model.Header{
		TimeDate: fr.required(header, "TimeDate"),
		Source:   fr.required(header, "Source"),
		Version:  fr.required(header, "Version"),
	}
	resource := fr.value(nameEl)
	if fr.err != nil {
		return nil, withDocument(name, fr.err)
	}
	headerPosix := fr.posix(h.TimeDate)

	items := x.lookup.All(rto, tagItem)
	records := make([]model.Record, 0, len(items))
	for _, item := range items {
		rec := fr.record(&h, headerPosix, resource, item)
		if fr.err != nil {
			return nil, withDocument(name, fr.err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// fieldReader reads fields until the first required miss, which sticks in err.
type fieldReader struct {
	lookup Lookup
	norm   *timeconv.Normalizer
	err    error
}

func (f *fieldReader) required(scope *Element, name string) string {
	if f.err != nil {
		return ""
	}
	s, err := f.lookup.Required(scope, name)
	if err != nil {
		f.err = err
	}
	return s
}

func (f *fieldReader) value(el *Element) string {
	if f.err != nil {
		return ""
	}
	s, err := Value(el)
	if err != nil {
		f.err = err
	}
	return s
}

func (f *fieldReader) posix(s string) float64 {
	if f.err != nil {
		return timeconv.Sentinel
	}
	return f.norm.ToEpochSeconds(s)
}

func (f *fieldReader) record(h *model.Header, headerPosix float64, resource string, item *Element) model.Record {
	rec := model.Record{
		TimeDate:      h.TimeDate,
		TimeDatePosix: headerPosix,
		Source:        h.Source,
		Version:       h.Version,
		Name:          resource,
		System:        f.required(item, "SYSTEM"),
		TZ:            f.required(item, "TZ"),
		Report:        f.required(item, "REPORT"),
		APNodeName:    f.required(item, "APNODE_NAME"),
		APNodeType:    f.required(item, "APNODE_TYPE"),
		StartDate:     f.required(item, "START_DATE"),
		EndDate:       f.required(item, "END_DATE"),
		StartDateGMT:  f.required(item, "START_DATE_GMT"),
		EndDateGMT:    f.required(item, "END_DATE_GMT"),
		CBNodeFlag:    f.required(item, "CB_NODE_FLAG"),
		MaxCBMW:       f.lookup.Optional(item, "MAX_CB_MW"),
	}
	rec.StartDatePosix = f.posix(rec.StartDateGMT)
	rec.EndDatePosix = f.posix(rec.EndDateGMT)
	return rec
}

// withDocument stamps the document name on an ExtractionError.
func withDocument(name string, err error) error {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		ee.Document = name
		return ee
	}
	return &ExtractionError{Document: name, Err: err}
}
