package service

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jjenkins/lawwatch/internal/model"
)

// Record element names used by the law API responses
const (
	SearchRecordTag   = "law"
	DetailRecordTag   = "법령"
	RevisionRecordTag = "개정문"
)

// Parser extracts flat field records from law API XML
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// ExtractRecords returns one record per element named recordTag, in document order.
// Tag names are matched case-insensitively. Absent fields are left out of the record.
// Malformed markup yields an error wrapping ErrParse.
func (p *Parser) ExtractRecords(content []byte, recordTag string) ([]model.LawRecord, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	decoder.Entity = xml.HTMLEntity

	var (
		records     []model.LawRecord
		current     model.LawRecord
		depth       int
		recordDepth int
		field       model.Field
		fieldDepth  int
		text        strings.Builder
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if current == nil {
				if strings.EqualFold(t.Name.Local, recordTag) {
					current = model.LawRecord{}
					recordDepth = depth
				}
				continue
			}
			if fieldDepth == 0 {
				if f, ok := matchField(t.Name.Local); ok {
					field = f
					fieldDepth = depth
					text.Reset()
				}
			}

		case xml.EndElement:
			if fieldDepth == depth {
				setField(current, field, strings.TrimSpace(text.String()))
				fieldDepth = 0
			}
			if current != nil && depth == recordDepth {
				records = append(records, current)
				current = nil
			}
			depth--

		case xml.CharData:
			if fieldDepth > 0 {
				text.Write(t)
			}
		}
	}

	return records, nil
}

// ExtractRecord returns the first record named recordTag, or nil when there is none
func (p *Parser) ExtractRecord(content []byte, recordTag string) (model.LawRecord, error) {
	records, err := p.ExtractRecords(content, recordTag)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// matchField maps an element name onto a known field, ignoring case
// (the API emits both 법령ID and 법령id)
func matchField(name string) (model.Field, bool) {
	for _, f := range model.RecordFields {
		if strings.EqualFold(name, string(f)) {
			return f, true
		}
	}
	return "", false
}

// setField keeps the first occurrence of a field, except article text which
// accumulates every article of the record
func setField(r model.LawRecord, f model.Field, value string) {
	existing, ok := r[f]
	switch {
	case !ok:
		r[f] = value
	case f == model.FieldContent && value != "":
		if existing == "" {
			r[f] = value
		} else {
			r[f] = existing + "\n" + value
		}
	}
}
