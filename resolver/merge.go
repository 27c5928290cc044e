package resolver

import (
	"github.com/leocov-dev/launchwiz/core"
)

// argumentLists are the arguments keys whose lists concatenate instead of being replaced.
var argumentLists = map[string]bool{"game": true, "jvm": true}

// Merge folds a loader profile (child) into its vanilla base (parent). Library
// lists concatenate with the child's entries first so its versions win
// de-duplication. arguments.game and arguments.jvm concatenate parent then child.
// Other maps merge by key and everything else takes the child's value.
// Neither input is modified.
func Merge(parent, child core.Document) core.Document {
	out := parent.Clone()
	if out == nil {
		out = core.Document{}
	}
	for key, value := range child.Clone() {
		switch key {
		case "libraries":
			out[key] = concat(listOf(value), listOf(out[key]))
		case "arguments":
			out[key] = mergeArguments(mapOf(out[key]), mapOf(value))
		default:
			out[key] = mergeValue(out[key], value)
		}
	}
	return out
}

func mergeArguments(parent, child map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		if argumentLists[k] {
			out[k] = concat(listOf(out[k]), listOf(v))
			continue
		}
		out[k] = mergeValue(out[k], v)
	}
	return out
}

func mergeValue(parent, child interface{}) interface{} {
	pm, pok := parent.(map[string]interface{})
	cm, cok := child.(map[string]interface{})
	if !pok || !cok {
		return child
	}
	out := make(map[string]interface{}, len(pm)+len(cm))
	for k, v := range pm {
		out[k] = v
	}
	for k, v := range cm {
		out[k] = mergeValue(out[k], v)
	}
	return out
}

func concat(a, b []interface{}) []interface{} {
	out := make([]interface{}, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func listOf(v interface{}) []interface{} {
	l, _ := v.([]interface{})
	return l
}

func mapOf(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case map[string]interface{}:
		return m
	case core.Document:
		return m
	}
	return nil
}

// Normalize pins the merged document to the profile: id is the profile id,
// inheritsFrom and jar name the vanilla base, and mainClass is replaced by the
// canonical entrypoint unless it is one the loader is known to use.
func Normalize(doc core.Document, profile core.LoaderProfile) core.Document {
	doc["id"] = profile.ID
	if profile.IsModded() {
		doc["inheritsFrom"] = profile.BaseID
		doc["jar"] = profile.BaseID
	} else {
		delete(doc, "inheritsFrom")
		doc["jar"] = profile.BaseID
	}
	if !profile.Kind.MainClassAccepted(doc.String("mainClass")) {
		doc["mainClass"] = profile.Kind.CanonicalMainClass()
	}
	return doc
}
