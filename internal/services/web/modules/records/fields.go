package records

import (
	"context"
	"sort"
	"strings"

	"github.com/mscwg/catalog/internal/catalog"
	"github.com/mscwg/catalog/internal/catalog/mscid"
	"github.com/mscwg/catalog/internal/catalog/vocab"
	"github.com/mscwg/catalog/internal/services/web/templates"
)

var seriesLabels = map[mscid.Table]string{
	mscid.TableScheme:      "Metadata standard",
	mscid.TableGroup:       "Organization",
	mscid.TableTool:        "Tool",
	mscid.TableCrosswalk:   "Crosswalk",
	mscid.TableEndorsement: "Endorsement",
}

// relationHeadings maps rolemap role names to page headings.
var relationHeadings = map[string]string{
	"parent scheme":       "Parent standards",
	"child scheme":        "Child standards",
	"input to mapping":    "Crosswalks from this standard",
	"output from mapping": "Crosswalks to this standard",
	"maintainer":          "Maintainers",
	"funder":              "Funders",
	"user":                "Users",
	"tool":                "Tools",
	"endorsement":         "Endorsements",
	"supported scheme":    "Supported standards",
	"input scheme":        "Input standards",
	"output scheme":       "Output standards",
	"maintained scheme":   "Maintained standards",
	"maintained tool":     "Maintained tools",
	"maintained mapping":  "Maintained crosswalks",
	"funded scheme":       "Funded standards",
	"funded tool":         "Funded tools",
	"funded mapping":      "Funded crosswalks",
	"used scheme":         "Used standards",
	"endorsed scheme":     "Endorsed standards",
	"originator":          "Originators",
}

// roleOrder fixes relation section ordering on display pages.
var roleOrder = []string{
	"parent scheme", "child scheme", "maintainer", "funder", "user",
	"tool", "input to mapping", "output from mapping", "endorsement",
	"supported scheme", "input scheme", "output scheme",
	"maintained scheme", "maintained tool", "maintained mapping",
	"funded scheme", "funded tool", "funded mapping", "used scheme",
	"endorsed scheme", "originator",
}

var groupVerbs = map[string]string{
	"maintained": "maintains",
	"funded":     "funds",
	"used":       "uses",
}

func (h handlers) buildRecordPage(ctx context.Context, view catalog.View, signedIn bool) (templates.RecordPage, error) {
	rec := view.Record
	page := templates.RecordPage{
		Title:       view.Name,
		SeriesLabel: seriesLabels[rec.ID.Table],
		MSCID:       rec.ID.String(),
		CanEdit:     signedIn,
		EditPath:    "/edit/" + strings.TrimPrefix(rec.ID.String(), mscid.Prefix),
	}

	page.Fields = h.buildFields(ctx, rec.ID.Table, rec.Data)
	page.Versions = versionViews(docMaps(rec.Data, "versions"))
	page.Relations = h.buildRelations(ctx, view)
	if rec.ID.Table == mscid.TableGroup {
		page.GroupSummary = groupSummary(view)
	}
	return page, nil
}

func (h handlers) buildFields(ctx context.Context, table mscid.Table, data map[string]any) []templates.FieldView {
	var fields []templates.FieldView

	if desc := docString(data, "description"); desc != "" {
		fields = append(fields, templates.FieldView{Label: "Description", HTML: desc})
	}
	if pub := docString(data, "publication"); pub != "" {
		fields = append(fields, templates.FieldView{
			Label:  "Publication",
			Values: []templates.ValueView{{Text: pub}},
		})
	}
	if creators := docMaps(data, "creators"); len(creators) > 0 {
		var values []templates.ValueView
		for _, creator := range creators {
			if name := creatorName(creator); name != "" {
				values = append(values, templates.ValueView{Text: name})
			}
		}
		if len(values) > 0 {
			fields = append(fields, templates.FieldView{Label: "Creators", Values: values})
		}
	}
	if issued := docString(data, "issued"); issued != "" {
		fields = append(fields, templates.FieldView{
			Label:  "Date issued",
			Values: []templates.ValueView{{Text: issued}},
		})
	}
	if valid, ok := data["valid"].(map[string]any); ok {
		text := docString(valid, "start")
		if end := docString(valid, "end"); end != "" {
			text += " to " + end
		}
		if text != "" {
			fields = append(fields, templates.FieldView{
				Label:  "Valid",
				Values: []templates.ValueView{{Text: text}},
			})
		}
	}
	if keywords := docStrings(data, "keywords"); len(keywords) > 0 {
		values := make([]templates.ValueView, 0, len(keywords))
		for _, keyword := range keywords {
			label := h.keywordLabel(keyword)
			values = append(values, templates.ValueView{Text: label, URL: subjectPath(label)})
		}
		fields = append(fields, templates.FieldView{Label: "Subject areas", Values: values})
	}
	if dataTypes := docStrings(data, "dataTypes"); len(dataTypes) > 0 {
		var values []templates.ValueView
		for _, idStr := range dataTypes {
			values = append(values, h.datatypeValue(ctx, idStr))
		}
		fields = append(fields, templates.FieldView{Label: "Data types", Values: values})
	}
	if types := docStrings(data, "types"); len(types) > 0 {
		values := make([]templates.ValueView, 0, len(types))
		for _, t := range types {
			values = append(values, templates.ValueView{Text: t})
		}
		fields = append(fields, templates.FieldView{Label: "Types", Values: values})
	}
	if locations := docMaps(data, "locations"); len(locations) > 0 {
		var values []templates.ValueView
		for _, location := range locations {
			locURL := docString(location, "url")
			text := docString(location, "type")
			if text == "" {
				text = locURL
			}
			values = append(values, templates.ValueView{Text: text, URL: locURL})
		}
		fields = append(fields, templates.FieldView{Label: "Locations", Values: values})
	}
	if namespaces := docMaps(data, "namespaces"); len(namespaces) > 0 {
		var values []templates.ValueView
		for _, namespace := range namespaces {
			text := docString(namespace, "uri")
			if prefix := docString(namespace, "prefix"); prefix != "" {
				text = prefix + ": " + text
			}
			values = append(values, templates.ValueView{Text: text})
		}
		fields = append(fields, templates.FieldView{Label: "Namespaces", Values: values})
	}
	if identifiers := docMaps(data, "identifiers"); len(identifiers) > 0 {
		var values []templates.ValueView
		for _, identifier := range identifiers {
			id := docString(identifier, "id")
			if id == "" {
				continue
			}
			text := id
			if scheme := docString(identifier, "scheme"); scheme != "" {
				text = scheme + ": " + id
			}
			value := templates.ValueView{Text: text}
			if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
				value.URL = id
			}
			values = append(values, value)
		}
		fields = append(fields, templates.FieldView{Label: "Identifiers", Values: values})
	}
	return fields
}

func (h handlers) keywordLabel(keyword string) string {
	thesaurus := h.deps.Catalog.Thesaurus()
	if strings.HasPrefix(keyword, "http://") || strings.HasPrefix(keyword, "https://") {
		if label := thesaurus.Label(keyword); label != "" {
			return label
		}
	}
	return keyword
}

func (h handlers) datatypeValue(ctx context.Context, idStr string) templates.ValueView {
	value := templates.ValueView{Text: idStr}
	id, err := mscid.Parse(idStr)
	if err != nil || id.Table != mscid.TableDatatype {
		return value
	}
	rec, err := h.deps.Catalog.Get(ctx, idStr)
	if err != nil {
		return value
	}
	value.Text = rec.Name()
	value.URL = "/datatype/" + strings.TrimPrefix(idStr, mscid.Prefix+string(mscid.TableDatatype))
	return value
}

func (h handlers) buildRelations(ctx context.Context, view catalog.View) []templates.RelationView {
	byRole := make(map[string][]templates.Link)
	for _, entity := range view.Entities {
		name := entity.ID
		if rec, err := h.deps.Catalog.Get(ctx, entity.ID); err == nil {
			name = h.recordName(ctx, rec)
		}
		byRole[entity.Role] = append(byRole[entity.Role], templates.Link{
			Name: name,
			Path: recordPath(entity.ID),
		})
	}
	var out []templates.RelationView
	emit := func(role string) {
		links, ok := byRole[role]
		if !ok {
			return
		}
		delete(byRole, role)
		h.sortLinks(links)
		heading, found := relationHeadings[role]
		if !found {
			heading = strings.ToUpper(role[:1]) + role[1:] + "s"
		}
		out = append(out, templates.RelationView{Label: heading, Entities: links})
	}
	for _, role := range roleOrder {
		emit(role)
	}
	rest := make([]string, 0, len(byRole))
	for role := range byRole {
		rest = append(rest, role)
	}
	sort.Strings(rest)
	for _, role := range rest {
		emit(role)
	}
	return out
}

// groupSummary condenses an organization's roles into one sentence, as in
// "This organization funds, maintains, and uses resources in this catalog."
func groupSummary(view catalog.View) []string {
	present := make(map[string]bool)
	for _, entity := range view.Entities {
		for prefix, verb := range groupVerbs {
			if strings.HasPrefix(entity.Role, prefix) {
				present[verb] = true
			}
		}
		if entity.Role == "endorsement" {
			present["endorses"] = true
		}
	}
	if len(present) == 0 {
		return nil
	}
	verbs := make([]string, 0, len(present))
	for verb := range present {
		verbs = append(verbs, verb)
	}
	sort.Strings(verbs)
	return []string{"This organization " + joinVerbs(verbs) + " resources in this catalog."}
}

func joinVerbs(verbs []string) string {
	switch len(verbs) {
	case 0:
		return ""
	case 1:
		return verbs[0]
	case 2:
		return verbs[0] + " and " + verbs[1]
	}
	return strings.Join(verbs[:len(verbs)-1], ", ") + ", and " + verbs[len(verbs)-1]
}

func subjectNodes(nodes []*vocab.Node) []templates.TreeNode {
	out := make([]templates.TreeNode, 0, len(nodes))
	for _, node := range nodes {
		if node == nil {
			continue
		}
		out = append(out, templates.TreeNode{
			Name:     node.Label,
			Path:     subjectPath(node.Label),
			Children: subjectNodes(node.Children),
		})
	}
	return out
}

func docString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func docStrings(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	raw, ok := m[key].([]any)
	if !ok {
		if s, isStr := m[key].(string); isStr && s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, isStr := item.(string); isStr && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func docMaps(m map[string]any, key string) []map[string]any {
	if m == nil {
		return nil
	}
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if entry, isMap := item.(map[string]any); isMap {
			out = append(out, entry)
		}
	}
	return out
}

func creatorName(creator map[string]any) string {
	if name := docString(creator, "fullName"); name != "" {
		return name
	}
	given := docString(creator, "givenName")
	family := docString(creator, "familyName")
	return strings.TrimSpace(given + " " + family)
}
