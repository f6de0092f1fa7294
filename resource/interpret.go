package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kbukum/resourcekit/errors"
	"github.com/kbukum/resourcekit/transport"
)

const (
	headerETag            = "etag"
	headerContentType     = "content-type"
	headerContentLocation = "content-location"
	headerLocation        = "location"
	mediaTypeJSON         = "application/json"
)

// Interpret validates a transport outcome and hands the decoded body to
// Build. Checks run in a fixed order and the first failure is returned.
func (c *Client) Interpret(resp *transport.Response, err error, url, locationHeader string, existing Resource) (Resource, error) {
	if err != nil {
		return nil, errors.Transport(err)
	}
	if resp == nil {
		return nil, errors.Transport(fmt.Errorf("no response"))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.UnexpectedStatus(resp.StatusCode, url, resp.Body)
	}

	location := resp.Header(locationHeader)
	if location == "" {
		return nil, errors.MissingHeader(locationHeader, url)
	}
	etag := resp.Header(headerETag)
	if etag == "" {
		return nil, errors.MissingETag()
	}
	contentType := resp.Header(headerContentType)
	if contentType == "" {
		return nil, errors.MissingContentType()
	}
	if !isJSON(contentType) {
		return nil, errors.NonJSONContentType(contentType)
	}

	payload, perr := decodeObject(resp.Body)
	if perr != nil {
		return nil, errors.Parse(perr)
	}
	return c.Build(payload, location, etag, existing)
}

func isJSON(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), mediaTypeJSON)
}

func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty body")
		}
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after json value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %s", jsonType(v))
	}
	return obj, nil
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
