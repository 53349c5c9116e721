// Package template resolves placeholder tokens embedded in free text against
// a resolution context bundling trigger payload, customer record, custom
// objects, knowledge-base entries and media assets.
//
// The grammar is {{namespace.path}} for text substitution, with namespace one
// of trigger, db.customer, custom_fields, custom_object, kb, ai and api, plus
// the bracket tokens [[MEDIA:id]] and [[FOLDER:name]] for binary assets.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/relaycrm/relay/pkg/models"
)

// Mode controls what happens to tokens that cannot be resolved.
type Mode int

const (
	// FailOpen leaves unresolved tokens verbatim in the output. The default.
	FailOpen Mode = iota
	// FailClosed returns an error naming the first unresolved token.
	FailClosed
)

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z0-9_\-]+)*)\s*\}\}`)
	assetRe       = regexp.MustCompile(`\[\[(MEDIA|FOLDER):([^\]\s]+)\]\]`)
)

// Context bundles every data source a template may reference.
type Context struct {
	Trigger       map[string]any
	Customer      map[string]any
	CustomFields  map[string]any
	CustomObjects map[string]map[string]map[string]any
	Knowledge     map[string]string
	AI            map[string]any
	API           map[string]any
	MediaURLs     map[string]string
	FolderURLs    map[string][]string
}

// FromExecution builds a resolution context from an execution context. The
// api namespace exposes prior node results keyed by node ID.
func FromExecution(ectx *models.ExecutionContext) Context {
	api := make(map[string]any, len(ectx.NodeResults))
	for nodeID, result := range ectx.NodeResults {
		api[nodeID] = result.Data
	}

	return Context{
		Trigger:       ectx.TriggerData,
		Customer:      ectx.Customer,
		CustomFields:  ectx.Customer,
		CustomObjects: ectx.CustomObjects,
		Knowledge:     ectx.Knowledge,
		AI:            ectx.AI,
		API:           api,
	}
}

// Result is the outcome of resolving one template.
type Result struct {
	Text       string
	Unresolved []string // Tokens left verbatim, in order of appearance
}

// Render resolves every placeholder and asset token in input. In FailOpen
// mode unresolved tokens stay verbatim and are reported through
// Result.Unresolved; in FailClosed mode the first unresolved token aborts
// with an error.
func Render(input string, rc Context, mode Mode) (Result, error) {
	var unresolved []string

	out := placeholderRe.ReplaceAllStringFunc(input, func(token string) string {
		path := placeholderRe.FindStringSubmatch(token)[1]

		value, ok := rc.lookup(path)
		if !ok {
			unresolved = append(unresolved, token)

			return token
		}

		return stringify(value)
	})

	out = assetRe.ReplaceAllStringFunc(out, func(token string) string {
		match := assetRe.FindStringSubmatch(token)

		value, ok := rc.lookupAsset(match[1], match[2])
		if !ok {
			unresolved = append(unresolved, token)

			return token
		}

		return value
	})

	if mode == FailClosed && len(unresolved) > 0 {
		return Result{}, fmt.Errorf("unresolved template token %s", unresolved[0])
	}

	return Result{Text: out, Unresolved: unresolved}, nil
}

// RenderString is Render for callers that only need the text.
func RenderString(input string, rc Context, mode Mode) (string, error) {
	result, err := Render(input, rc, mode)
	if err != nil {
		return "", err
	}

	return result.Text, nil
}

// HasPlaceholders reports whether input contains any token the resolver
// would act on.
func HasPlaceholders(input string) bool {
	return placeholderRe.MatchString(input) || assetRe.MatchString(input)
}

// AssetRefs returns the media IDs and folder names referenced by asset
// tokens in input, in order of appearance, so callers can resolve just
// those before rendering.
func AssetRefs(input string) (mediaIDs, folders []string) {
	for _, match := range assetRe.FindAllStringSubmatch(input, -1) {
		switch match[1] {
		case "MEDIA":
			mediaIDs = append(mediaIDs, match[2])
		case "FOLDER":
			folders = append(folders, match[2])
		}
	}

	return mediaIDs, folders
}

// lookup resolves a dotted placeholder path against the matching namespace.
func (rc Context) lookup(path string) (any, bool) {
	parts := strings.Split(path, ".")

	switch parts[0] {
	case "trigger":
		return walk(rc.Trigger, parts[1:])
	case "db":
		if len(parts) < 3 || parts[1] != "customer" {
			return nil, false
		}

		return walk(rc.Customer, parts[2:])
	case "custom_fields":
		return walk(rc.CustomFields, parts[1:])
	case "custom_object":
		return rc.lookupCustomObject(parts[1:])
	case "kb":
		if len(parts) != 2 {
			return nil, false
		}

		content, ok := rc.Knowledge[parts[1]]

		return content, ok
	case "ai":
		return walk(rc.AI, parts[1:])
	case "api":
		return walk(rc.API, parts[1:])
	default:
		return nil, false
	}
}

// lookupCustomObject resolves custom_object.{type}.{record}.{field...}. A
// path with an unselected or unknown record id resolves to nothing rather
// than failing hard: the authoring UI treats that as "needs selection".
func (rc Context) lookupCustomObject(parts []string) (any, bool) {
	if len(parts) < 3 {
		return nil, false
	}

	records, ok := rc.CustomObjects[parts[0]]
	if !ok {
		return nil, false
	}

	fields, ok := records[parts[1]]
	if !ok {
		return nil, false
	}

	return walk(fields, parts[2:])
}

func (rc Context) lookupAsset(kind, ref string) (string, bool) {
	switch kind {
	case "MEDIA":
		url, ok := rc.MediaURLs[ref]

		return url, ok
	case "FOLDER":
		urls, ok := rc.FolderURLs[ref]
		if !ok || len(urls) == 0 {
			return "", false
		}

		return strings.Join(urls, "\n"), true
	default:
		return "", false
	}
}

// walk descends a nested map following path segments. An empty path returns
// the map itself; partial records simply stop the descent.
func walk(data map[string]any, path []string) (any, bool) {
	if data == nil {
		return nil, false
	}

	if len(path) == 0 {
		return data, true
	}

	current := any(data)

	for _, segment := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(encoded)
	}
}
