package playbook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is stamped on every document written by EncodeDocument.
// Documents without a version predate the envelope and are migrated on read.
const SchemaVersion = 2

const associationsKey = "playerRouteAssociations"

// listKeys name the document fields that always hold lists. The store
// writes an empty list under any of them as an empty object.
var listKeys = map[string]struct{}{
	"plays":   {},
	"folders": {},
	"players": {},
	"routes":  {},
	"texts":   {},
	"circles": {},
	"points":  {},
}

type envelope struct {
	SchemaVersion int             `json:"schemaVersion"`
	Data          json.RawMessage `json:"data"`
}

// UnmarshalJSON tolerates plays or folders values that are not arrays by
// decoding them as empty lists.
func (d *UserData) UnmarshalJSON(data []byte) error {
	var raw struct {
		Plays     json.RawMessage `json:"plays"`
		Folders   json.RawMessage `json:"folders"`
		UpdatedAt *time.Time      `json:"updatedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	plays, err := DecodeList[Play](raw.Plays)
	if err != nil {
		return fmt.Errorf("decoding plays: %w", err)
	}
	folders, err := DecodeList[Folder](raw.Folders)
	if err != nil {
		return fmt.Errorf("decoding folders: %w", err)
	}

	*d = UserData{Plays: plays, Folders: folders}
	if raw.UpdatedAt != nil {
		d.UpdatedAt = *raw.UpdatedAt
	}
	return nil
}

// DecodeList decodes a JSON array. Any other shape, including null or a
// missing value, yields an empty list.
func DecodeList[T any](raw []byte) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return []T{}, nil
	}
	out := []T{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeDocument renders data in the stored document format: sanitized for
// the document store and wrapped in a versioned envelope.
func EncodeDocument(data UserData) ([]byte, error) {
	tree, err := toTree(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		"schemaVersion": SchemaVersion,
		"data":          Sanitize(tree),
	})
}

// DecodeDocument reads a stored user document. It accepts the current
// envelope as well as bare legacy documents, and reports whether the
// document should be rewritten in the current format.
func DecodeDocument(doc []byte) (data UserData, migrate bool, err error) {
	var env envelope
	if err := json.Unmarshal(doc, &env); err != nil {
		return UserData{}, false, fmt.Errorf("decoding document: %w", err)
	}

	body := env.Data
	if env.SchemaVersion == 0 || len(body) == 0 {
		body = doc
		migrate = true
	} else if env.SchemaVersion < SchemaVersion {
		migrate = true
	}

	if err := decodeSanitized(body, &data); err != nil {
		return UserData{}, false, err
	}
	return data, migrate, nil
}

// EncodeSnapshot and DecodeSnapshot store share snapshots with the same
// sanitization as user documents.
func EncodeSnapshot(s SharedFolder) ([]byte, error) {
	tree, err := toTree(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Sanitize(tree))
}

func DecodeSnapshot(doc []byte) (SharedFolder, error) {
	var s SharedFolder
	if err := decodeSanitized(doc, &s); err != nil {
		return SharedFolder{}, err
	}
	if s.Plays == nil {
		s.Plays = []Play{}
	}
	return s, nil
}

func decodeSanitized(doc []byte, dest any) error {
	var tree any
	if err := json.Unmarshal(doc, &tree); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	restored, err := json.Marshal(emptyLists(Desanitize(tree, associationsKey)))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(restored, dest); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	return nil
}

// emptyLists turns {} back into [] under the list keys.
func emptyLists(v any) any {
	switch t := v.(type) {
	case []any:
		for i, el := range t {
			t[i] = emptyLists(el)
		}
		return t
	case map[string]any:
		for k, el := range t {
			if k == associationsKey {
				continue
			}
			if m, ok := el.(map[string]any); ok && len(m) == 0 {
				if _, list := listKeys[k]; list {
					t[k] = []any{}
					continue
				}
			}
			t[k] = emptyLists(el)
		}
		return t
	default:
		return v
	}
}

func toTree(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(b, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}
