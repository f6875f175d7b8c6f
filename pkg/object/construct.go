package object

// defaultConstructors builds the eleven core kinds from a raw document's
// data fields. Field names match the document vocabulary kebab-case keys;
// coercion is permissive (missing fields take the kind's zero/declared
// default) since validation against a template's schema, if any, has
// already run by the time a constructor is invoked.
var defaultConstructors = map[Kind]Constructor{
	KindTag: func(name string, data map[string]any, pos Origin) (Entity, error) {
		return &Tag{
			Base:          Base{K: K{Kind: KindTag, Name: name}, Pos: pos},
			Inherit:       asPriorityLinks(data["inherit"]),
			ExternalRepos: asPriorityLinks(data["external-repos"]),
			Extras:        asAnyMap(data["extras"]),
			Packages:      asStringListMap(data["packages"]),
			Arches:        asStringList(data["arches"]),
			Locked:        asBool(data["locked"], false),
			Maven:         asBool(data["maven"], false),
			Permission:    asString(data["permission"], ""),
		}, nil
	},
	KindTarget: func(name string, data map[string]any, pos Origin) (Entity, error) {
		destTag := asString(data["dest-tag"], name)
		return &Target{
			Base:     Base{K: K{Kind: KindTarget, Name: name}, Pos: pos},
			BuildTag: asString(data["build-tag"], ""),
			DestTag:  destTag,
		}, nil
	},
	KindExternalRepo: func(name string, data map[string]any, pos Origin) (Entity, error) {
		return &ExternalRepo{
			Base: Base{K: K{Kind: KindExternalRepo, Name: name}, Pos: pos},
			URL:  asString(data["url"], ""),
		}, nil
	},
	KindUser: func(name string, data map[string]any, pos Origin) (Entity, error) {
		return &User{
			Base:        Base{K: K{Kind: KindUser, Name: name}, Pos: pos},
			Groups:      asStringList(data["groups"]),
			Permissions: asStringList(data["permissions"]),
			Enabled:     asBool(data["enabled"], true),
			ExactGroups: asBool(data["exact-groups"], false),
			ExactPerms:  asBool(data["exact-permissions"], false),
		}, nil
	},
	KindGroup: func(name string, data map[string]any, pos Origin) (Entity, error) {
		return &Group{
			Base:         Base{K: K{Kind: KindGroup, Name: name}, Pos: pos},
			Members:      asStringList(data["members"]),
			Permissions:  asStringList(data["permissions"]),
			Enabled:      asBool(data["enabled"], true),
			ExactMembers: asBool(data["exact-members"], false),
			ExactPerms:   asBool(data["exact-permissions"], false),
		}, nil
	},
	KindHost: func(name string, data map[string]any, pos Origin) (Entity, error) {
		return &Host{
			Base:          Base{K: K{Kind: KindHost, Name: name}, Pos: pos},
			Arches:        asStringList(data["arches"]),
			Capacity:      asFloat64(data["capacity"], 0),
			Enabled:       asBool(data["enabled"], true),
			Channels:      asStringList(data["channels"]),
			ExactChannels: asBool(data["exact-channels"], false),
		}, nil
	},
	KindChannel: func(name string, data map[string]any, pos Origin) (Entity, error) {
		return &Channel{
			Base:       Base{K: K{Kind: KindChannel, Name: name}, Pos: pos},
			Hosts:      asStringList(data["hosts"]),
			ExactHosts: asBool(data["exact-hosts"], false),
		}, nil
	},
	KindPermission: func(name string, data map[string]any, pos Origin) (Entity, error) {
		return &Permission{Base: Base{K: K{Kind: KindPermission, Name: name}, Pos: pos}}, nil
	},
	KindBuildType: func(name string, data map[string]any, pos Origin) (Entity, error) {
		return &BuildType{Base: Base{K: K{Kind: KindBuildType, Name: name}, Pos: pos}}, nil
	},
	KindContentGenerator: func(name string, data map[string]any, pos Origin) (Entity, error) {
		return &ContentGenerator{
			Base:       Base{K: K{Kind: KindContentGenerator, Name: name}, Pos: pos},
			Users:      asStringList(data["users"]),
			ExactUsers: asBool(data["exact-users"], false),
		}, nil
	},
	KindArchiveType: func(name string, data map[string]any, pos Origin) (Entity, error) {
		return &ArchiveType{
			Base:        Base{K: K{Kind: KindArchiveType, Name: name}, Pos: pos},
			Extensions:  NormalizeExtensions(asStringList(data["extensions"])),
			Compression: asString(data["compression"], ""),
		}, nil
	},
}

func asString(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func asBool(v any, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func asFloat64(v any, def float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

func asStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asAnyMap(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

// asStringListMap coerces a document field expected to be a map of
// group-name -> list-of-strings (the tag "packages" field).
func asStringListMap(v any) map[string][]string {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(raw))
	for k, vv := range raw {
		out[k] = asStringList(vv)
	}
	return out
}

// asPriorityLinks coerces a document field into an ordered list of
// PriorityLink. Each entry is either a bare name (priority defaults to its
// position in the list) or a {name, priority} mapping.
func asPriorityLinks(v any) []PriorityLink {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]PriorityLink, 0, len(items))
	for i, it := range items {
		switch e := it.(type) {
		case string:
			out = append(out, PriorityLink{Name: e, Priority: i})
		case map[string]any:
			out = append(out, PriorityLink{
				Name:     asString(e["name"], ""),
				Priority: int(asFloat64(e["priority"], float64(i))),
			})
		}
	}
	return out
}
