package api

// Some list endpoints are served by GeoJSON serializers and answer with a
// FeatureCollection instead of a list of records. Normalize flattens such
// payloads so callers always see plain records.

const (
	geoFeatureCollection = "FeatureCollection"
	geoFeature           = "Feature"
)

// Normalize rewrites GeoJSON shaped payloads into plain records:
//
//   - a FeatureCollection becomes a list of records;
//   - a paginated envelope whose "results" is a FeatureCollection keeps its
//     envelope with "results" replaced by the list of records;
//   - a single Feature becomes one record.
//
// Each record is the feature's property bag with the feature id hoisted to
// "id" and the geometry stored under "location". Any other value is
// returned unchanged. The boolean reports whether a rewrite happened.
// Normalize is idempotent.
func Normalize(v any) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return v, false
	}

	if features, ok := featureCollection(m); ok {
		return flattenFeatures(features), true
	}

	if isFeature(m) {
		return flattenFeature(m), true
	}

	if results, ok := m["results"].(map[string]any); ok {
		if features, ok := featureCollection(results); ok {
			out := make(map[string]any, len(m))
			for k, val := range m {
				out[k] = val
			}
			out["results"] = flattenFeatures(features)
			return out, true
		}
	}

	return v, false
}

func featureCollection(m map[string]any) ([]any, bool) {
	if typ, _ := m["type"].(string); typ != geoFeatureCollection {
		return nil, false
	}
	features, ok := m["features"].([]any)
	if !ok && m["features"] == nil {
		return []any{}, true
	}
	return features, ok
}

func isFeature(m map[string]any) bool {
	typ, _ := m["type"].(string)
	if typ != geoFeature {
		return false
	}
	_, hasGeometry := m["geometry"]
	_, hasProps := m["properties"]
	return hasGeometry || hasProps
}

func flattenFeatures(features []any) []any {
	out := make([]any, 0, len(features))
	for _, f := range features {
		fm, ok := f.(map[string]any)
		if !ok {
			out = append(out, f)
			continue
		}
		out = append(out, flattenFeature(fm))
	}
	return out
}

func flattenFeature(f map[string]any) map[string]any {
	props, _ := f["properties"].(map[string]any)
	rec := make(map[string]any, len(props)+2)
	for k, v := range props {
		rec[k] = v
	}
	if id, ok := f["id"]; ok && id != nil {
		rec["id"] = id
	}
	rec["location"] = f["geometry"]
	return rec
}
