// internal/sources/validate.go
package sources

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "autoapply/internal/common/errors"
)

// postingSchema is enforced against every raw payload item coming back
// from an external API before it is normalized into a JobPosting. Items
// that fail validation are rejected explicitly instead of propagating
// untyped data into the pipeline.
const postingSchema = `{
	"type": "object",
	"properties": {
		"title":        {"type": "string", "minLength": 1},
		"company":      {"type": "string"},
		"location":     {"type": "string"},
		"url":          {"type": "string", "minLength": 8},
		"description":  {"type": "string"}
	},
	"required": ["title", "url"]
}`

var postingSchemaLoader = gojsonschema.NewStringLoader(postingSchema)

// rawPosting is the loosely-typed shape a source maps its payload into
// before validation.
type rawPosting struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// validatePosting checks one raw item against the posting schema.
func validatePosting(source string, raw rawPosting) error {
	doc, err := json.Marshal(raw)
	if err != nil {
		return apperrors.NewSourceBadPayloadError(source, err.Error())
	}

	result, err := gojsonschema.Validate(postingSchemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return apperrors.NewSourceBadPayloadError(source, err.Error())
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return apperrors.NewSourceBadPayloadError(source, strings.Join(msgs, "; "))
	}

	if !strings.HasPrefix(raw.URL, "http://") && !strings.HasPrefix(raw.URL, "https://") {
		return apperrors.NewSourceBadPayloadError(source, fmt.Sprintf("url is not absolute: %q", raw.URL))
	}

	return nil
}
