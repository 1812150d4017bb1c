package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"blitztest/internal/model"
)

// DefaultCollectionName is used when a Postman collection has no info.name.
const DefaultCollectionName = "Imported Collection"

// PostmanCollection is the subset of the Postman v2 collection schema we read.
type PostmanCollection struct {
	Info PostmanInfo   `json:"info"`
	Item []PostmanItem `json:"item"`
}

// PostmanInfo holds collection metadata.
type PostmanInfo struct {
	Name        string             `json:"name"`
	Description PostmanDescription `json:"description"`
}

// PostmanItem is either a folder (Item set) or a leaf (Request set). Postman
// allows both on the same node; both are honoured.
type PostmanItem struct {
	Name    string          `json:"name"`
	Request *PostmanRequest `json:"request"`
	Item    []PostmanItem   `json:"item"`
}

// PostmanRequest is a single request definition.
type PostmanRequest struct {
	Method string       `json:"method"`
	Header []PostmanKV  `json:"header"`
	URL    PostmanURL   `json:"url"`
	Body   *PostmanBody `json:"body"`
	Auth   *PostmanAuth `json:"auth"`
}

// UnmarshalJSON also accepts the short form where a request is just its URL.
func (r *PostmanRequest) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*r = PostmanRequest{URL: PostmanURL{Raw: raw}}
		return nil
	}

	type plain PostmanRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = PostmanRequest(p)
	return nil
}

// PostmanKV is a header or query row.
type PostmanKV struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

// PostmanBody is a request body; only raw content is carried over.
type PostmanBody struct {
	Mode string `json:"mode"`
	Raw  string `json:"raw"`
}

// PostmanAuth is a request auth block. Postman stores bearer tokens as a
// list of key/value attributes.
type PostmanAuth struct {
	Type   string      `json:"type"`
	Bearer []PostmanKV `json:"bearer"`
}

// PostmanURL is either a plain string or an object with raw and query fields.
type PostmanURL struct {
	Raw      string
	Query    []PostmanKV
	IsObject bool
}

// UnmarshalJSON accepts both URL encodings Postman produces.
func (u *PostmanURL) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = PostmanURL{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*u = PostmanURL{Raw: raw}
		return nil
	}

	var obj struct {
		Raw   string      `json:"raw"`
		Query []PostmanKV `json:"query"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("url: %w", err)
	}
	*u = PostmanURL{Raw: obj.Raw, Query: obj.Query, IsObject: true}
	return nil
}

// PostmanDescription is either a plain string or an object with a content field.
type PostmanDescription string

// UnmarshalJSON accepts both description encodings Postman produces.
func (d *PostmanDescription) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = PostmanDescription(s)
		return nil
	}

	var obj struct {
		Content string `json:"content"`
	}
	// Any other shape just means no description.
	_ = json.Unmarshal(data, &obj)
	*d = PostmanDescription(obj.Content)
	return nil
}

// DecodePostman decodes data into a typed Postman collection. Any decode
// failure, including a top-level value that is not an object, is a FormatError.
func DecodePostman(data []byte) (PostmanCollection, error) {
	if _, err := decodeObject("postman", data); err != nil {
		return PostmanCollection{}, err
	}

	var col PostmanCollection
	if err := json.Unmarshal(data, &col); err != nil {
		return PostmanCollection{}, &FormatError{Format: "postman", Err: err}
	}
	return col, nil
}

// ConvertPostman walks the item tree depth first, parent before children and in
// document order, producing one request per leaf and a single collection that
// owns them all. collectionID is shared by every produced request.
func ConvertPostman(col PostmanCollection, collectionID string, at time.Time) ([]model.Request, model.Collection) {
	var requests []model.Request
	ms := at.UnixMilli()

	var walk func(items []PostmanItem)
	walk = func(items []PostmanItem) {
		for _, item := range items {
			if item.Request != nil {
				req := convertPostmanRequest(item, ms, len(requests), at)
				req.CollectionID = collectionID
				requests = append(requests, req)
			}
			if len(item.Item) > 0 {
				walk(item.Item)
			}
		}
	}
	walk(col.Item)

	name := col.Info.Name
	if name == "" {
		name = DefaultCollectionName
	}

	ids := make([]string, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ID)
	}

	return requests, model.Collection{
		ID:          collectionID,
		Name:        name,
		Description: string(col.Info.Description),
		Requests:    ids,
		CreatedAt:   at.UTC().Format(time.RFC3339Nano),
	}
}

func convertPostmanRequest(item PostmanItem, ms int64, index int, at time.Time) model.Request {
	src := item.Request

	req := model.Request{
		ID:       model.StampID("imported", at, index),
		Name:     item.Name,
		Method:   src.Method,
		URL:      src.URL.Raw,
		BodyType: model.BodyNone,
		AuthType: model.AuthNone,
	}

	for i, h := range src.Header {
		req.Headers = append(req.Headers, model.Header{
			ID:      fmt.Sprintf("h%d-%d-%d", ms, index, i),
			Key:     h.Key,
			Value:   h.Value,
			Enabled: !h.Disabled,
		})
	}

	if src.URL.IsObject {
		for i, q := range src.URL.Query {
			req.Params = append(req.Params, model.QueryParam{
				ID:      fmt.Sprintf("p%d-%d-%d", ms, index, i),
				Key:     q.Key,
				Value:   q.Value,
				Enabled: !q.Disabled,
			})
		}
	}

	if src.Body != nil {
		req.BodyType, req.Body = postmanBody(*src.Body)
	}

	if src.Auth != nil && src.Auth.Type == model.AuthBearer {
		req.AuthType = model.AuthBearer
		for _, attr := range src.Auth.Bearer {
			if attr.Key == "token" {
				req.AuthToken = attr.Value
			}
		}
	}

	req.FillDefaults()
	return req
}

// postmanBody maps a Postman body mode onto a body type. Form fields are not
// converted: formdata and urlencoded bodies become an empty form body.
func postmanBody(body PostmanBody) (string, string) {
	switch body.Mode {
	case "raw":
		return model.BodyRaw, body.Raw
	case "formdata", "urlencoded":
		return model.BodyForm, ""
	default:
		return model.BodyNone, ""
	}
}
