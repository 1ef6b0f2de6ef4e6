package template

import (
	"encoding/base64"
	"encoding/json"
)

// spliceBase64 implements the structure-preserving re-encode rule:
// decode the original Base64 JSON blob the placeholder location held,
// replace only the nested key the placeholder represented, and
// re-encode the whole object. Downstream consumers validate the
// envelope shape, so substituting a bare value would corrupt it.
//
// If the original blob does not decode to a JSON object, the resolved
// value is encoded as its own one-key object instead.
func spliceBase64(original, key string, val any) string {
	obj := decodeBlob(original)
	if obj == nil {
		obj = map[string]any{}
	}
	obj[key] = val
	data, err := json.Marshal(obj)
	if err != nil {
		data = []byte("{}")
	}
	return base64.StdEncoding.EncodeToString(data)
}

func decodeBlob(blob string) map[string]any {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		// Tolerate unpadded input from sloppy producers.
		raw, err = base64.RawStdEncoding.DecodeString(blob)
		if err != nil {
			return nil
		}
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}
