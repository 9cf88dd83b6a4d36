package response

import (
	"bytes"
	"errors"
	"mime"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
)

var errNotJSON = errors.New("body is not JSON")

// ContentType returns the Content-Type header of the final response.
func (p *Parsed) ContentType() string {
	return p.Headers.Get("Content-Type")
}

// IsJSON reports whether the response carries JSON. A declared media type
// of application/json or any +json suffix counts; without a declared type
// the body is sniffed.
func (p *Parsed) IsJSON() bool {
	ct := p.ContentType()
	if ct == "" {
		return sniffJSON(p.Body)
	}

	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType, _, _ = strings.Cut(strings.ToLower(ct), ";")
		mediaType = strings.TrimSpace(mediaType)
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func sniffJSON(body []byte) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return false
	}
	for m := mimetype.Detect(body); m != nil; m = m.Parent() {
		if m.Is("application/json") {
			return true
		}
	}
	return false
}

// Decode fills into from the body. *string and *[]byte receive the raw body;
// anything else is decoded as JSON. A nil into or an empty body is a no-op.
// Failures are *errs.DecodeError and never invalidate p.
func Decode(p *Parsed, into any) error {
	if into == nil {
		return nil
	}

	switch dst := into.(type) {
	case *string:
		*dst = string(p.Body)
		return nil
	case *[]byte:
		*dst = bytes.Clone(p.Body)
		return nil
	}

	if len(p.Body) == 0 {
		return nil
	}

	ct := p.ContentType()
	if ct == "" {
		ct = mimetype.Detect(p.Body).String()
	}
	if !p.IsJSON() {
		return &errs.DecodeError{ContentType: ct, Err: errNotJSON}
	}
	if err := sonic.Unmarshal(p.Body, into); err != nil {
		return &errs.DecodeError{ContentType: ct, Err: err}
	}
	return nil
}
