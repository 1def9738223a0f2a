package normalize

// Dialect tells which input shape a field group arrived in.
type Dialect int

const (
	// DialectAbsent: none of the group's keys are present.
	DialectAbsent Dialect = iota
	// DialectNested: the group's key holds an object.
	DialectNested
	// DialectBare: the group's key holds a scalar, e.g. a religion name.
	DialectBare
	// DialectFlat: the group is spread over prefixed top-level keys.
	DialectFlat
)

func (d Dialect) String() string {
	switch d {
	case DialectNested:
		return "nested"
	case DialectBare:
		return "bare"
	case DialectFlat:
		return "flat"
	}
	return "absent"
}

// GroupKeys names where a field group can be found in a raw payload.
type GroupKeys struct {
	// Nested are the keys that may hold the group object, canonical first.
	Nested []string
	// Flat are the legacy top-level keys of the group.
	Flat []string
	// Bare groups accept a scalar under a nested key as their value. Elsewhere
	// such a scalar is ignored and the flat keys are consulted.
	Bare bool
}

// GroupInput is the classified raw input of one field group.
type GroupInput struct {
	Dialect Dialect
	// Fields is the nested object for DialectNested and the whole top-level
	// payload for DialectFlat.
	Fields fields
	// Bare is the scalar found under a nested key for DialectBare.
	Bare any
}

// Classify decides which dialect a group arrived in. An object under a
// nested key wins; a scalar under a nested key is bare when the group allows
// it; otherwise the group is flat if any of its legacy keys is present.
func Classify(raw map[string]any, keys GroupKeys) GroupInput {
	for _, k := range keys.Nested {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if m, ok := v.(map[string]any); ok {
			return GroupInput{Dialect: DialectNested, Fields: m}
		}
		if keys.Bare {
			return GroupInput{Dialect: DialectBare, Bare: v, Fields: raw}
		}
	}
	for _, k := range keys.Flat {
		if v, ok := raw[k]; ok && v != nil {
			return GroupInput{Dialect: DialectFlat, Fields: raw}
		}
	}
	return GroupInput{Dialect: DialectAbsent}
}

// fields is a raw object with alias-aware accessors. Each accessor takes the
// accepted keys in priority order and reads the first one present.
type fields map[string]any

func (f fields) get(keys ...string) any {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func (f fields) str(keys ...string) *string {
	return OptionalString(f.get(keys...))
}

func (f fields) object(keys ...string) fields {
	m, _ := f.get(keys...).(map[string]any)
	return m
}
