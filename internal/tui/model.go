package tui

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"worldkit/internal/api"
	"worldkit/internal/autosave"
	"worldkit/internal/config"
	"worldkit/internal/element"
	"worldkit/internal/relation"
)

// FilterDelay is how long the relationship picker waits after the last
// keystroke before filtering candidates.
const FilterDelay = 300 * time.Millisecond

// Client is the slice of the API client the browser needs. It also
// satisfies relation.Source, so the picker shares the client's cache.
type Client interface {
	CheckAuth(ctx context.Context) (*api.World, error)
	List(ctx context.Context, typ string, filter url.Values) ([]element.Element, error)
	Get(ctx context.Context, typ, id string) (*element.Element, error)
	Update(ctx context.Context, typ, id string, fields map[string]any) (*element.Element, error)
	Typing(ctx context.Context, typ string) (map[string][]string, error)
}

type viewMode int

const (
	modeCategories viewMode = iota
	modeList
	modeDetail
	modePicker
	modeConfirm
)

type worldLoadedMsg struct {
	world  *api.World
	counts map[string]int
	err    error
}

type elementsLoadedMsg struct {
	typ      string
	elements []element.Element
	err      error
}

type saveStatusMsg autosave.Status

type filterTickMsg struct {
	seq int
}

type candidatesMsg struct {
	seq        int
	candidates []relation.Candidate
	err        error
}

type tagsResolvedMsg struct {
	id   string
	tags map[string][]relation.Tag
}

type typingLoadedMsg struct {
	typ   string
	vocab map[string][]string
	err   error
}

type fieldRow struct {
	name  string
	desc  element.Descriptor
	value any
}

type elementItem struct {
	el element.Element
}

func (i elementItem) Title() string { return i.el.Name }

func (i elementItem) Description() string {
	if i.el.Supertype == "" {
		return i.el.ID
	}
	return i.el.Supertype
}

func (i elementItem) FilterValue() string { return i.el.Name }

// Model is the top-level bubbletea model for `worldkit browse`.
type Model struct {
	client  Client
	cfg     *config.Config
	cfgPath string
	styles  Styles

	mode   viewMode
	width  int
	height int

	world  *api.World
	counts map[string]int

	catIndex int

	list    list.Model
	curType string

	// detail state
	el         *element.Element
	fields     []fieldRow
	fieldIdx   int
	editing    bool
	input      textinput.Model
	session    *autosave.Session
	statusCh   chan autosave.Status
	status     autosave.Status
	saved      bool
	resolver   *relation.Resolver
	tags       map[string][]relation.Tag
	typing     map[string][]string
	typingType string

	// picker state
	picker      *relation.Picker
	pickerField int
	pickerInput textinput.Model
	pickerSeq   int
	pickerIdx   int
	candidates  []relation.Candidate

	// confirm overlay
	warning *relation.Warning
	pending relation.Candidate

	errMsg string
}

func New(client Client, cfg *config.Config, cfgPath string) *Model {
	input := textinput.New()
	input.CharLimit = 0

	pickerInput := textinput.New()
	pickerInput.Placeholder = "filter by name"

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowHelp(false)

	return &Model{
		client:      client,
		cfg:         cfg,
		cfgPath:     cfgPath,
		resolver:    relation.NewResolver(client),
		styles:      NewStyles(ThemeByName(cfg.Theme)),
		mode:        modeCategories,
		counts:      make(map[string]int),
		list:        l,
		input:       input,
		pickerInput: pickerInput,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.loadWorld()
}

func (m *Model) loadWorld() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx := context.Background()
		world, err := client.CheckAuth(ctx)
		if err != nil {
			return worldLoadedMsg{err: err}
		}
		counts := make(map[string]int, len(element.Types()))
		for _, typ := range element.Types() {
			elements, err := client.List(ctx, typ, nil)
			if err != nil {
				return worldLoadedMsg{err: err}
			}
			counts[typ] = len(elements)
		}
		return worldLoadedMsg{world: world, counts: counts}
	}
}

func (m *Model) loadElements(typ string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		elements, err := client.List(context.Background(), typ, nil)
		return elementsLoadedMsg{typ: typ, elements: elements, err: err}
	}
}

// openDetail starts an auto-save session for one element. Status
// transitions flow back into the program through statusCh.
func (m *Model) openDetail(el *element.Element) tea.Cmd {
	m.closeDetail()

	m.el = el
	m.fields = fieldRows(el)
	m.fieldIdx = 0
	m.editing = false
	m.saved = false
	m.status = autosave.Status{}
	m.tags = nil

	statusCh := make(chan autosave.Status, 16)
	m.statusCh = statusCh

	client := m.client
	typ := m.curType
	id := el.ID
	commit := func(ctx context.Context, fields map[string]any) error {
		_, err := client.Update(ctx, typ, id, fields)
		return err
	}
	m.session = autosave.NewSession(baselineFields(el), commit,
		autosave.WithNotify(func(st autosave.Status) {
			select {
			case statusCh <- st:
			default:
			}
		}))

	return tea.Batch(waitForStatus(statusCh), m.resolveTags())
}

// resolveTags resolves every link field's ids to display names through the
// client's cache. The result is keyed to the element id so a late message
// for a closed detail view is dropped.
func (m *Model) resolveTags() tea.Cmd {
	type linkField struct {
		name  string
		value any
	}
	var links []linkField
	for _, row := range m.fields {
		if row.desc.IsLink() {
			links = append(links, linkField{name: row.name, value: row.value})
		}
	}
	resolver := m.resolver
	id := m.el.ID
	return func() tea.Msg {
		ctx := context.Background()
		tags := make(map[string][]relation.Tag, len(links))
		for _, lf := range links {
			tags[lf.name] = resolver.Tags(ctx, lf.name, lf.value)
		}
		return tagsResolvedMsg{id: id, tags: tags}
	}
}

func (m *Model) loadTyping(typ string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		vocab, err := client.Typing(context.Background(), typ)
		return typingLoadedMsg{typ: typ, vocab: vocab, err: err}
	}
}

func (m *Model) closeDetail() {
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
	m.el = nil
	m.fields = nil
	m.statusCh = nil
	m.tags = nil
}

func waitForStatus(ch chan autosave.Status) tea.Cmd {
	return func() tea.Msg {
		return saveStatusMsg(<-ch)
	}
}

// baselineFields flattens an element into the session's field map.
func baselineFields(el *element.Element) map[string]any {
	fields := element.CloneFields(el.Fields)
	if fields == nil {
		fields = make(map[string]any)
	}
	fields["name"] = el.Name
	fields["description"] = el.Description
	fields["supertype"] = el.Supertype
	fields["subtype"] = el.Subtype
	fields["image_url"] = el.ImageURL
	return fields
}

// fieldRows orders an element's fields for display: the base fields first,
// then the extra fields sorted by name.
func fieldRows(el *element.Element) []fieldRow {
	rows := []fieldRow{
		{name: "name", value: el.Name},
		{name: "description", value: el.Description},
		{name: "supertype", value: el.Supertype},
		{name: "subtype", value: el.Subtype},
		{name: "image_url", value: el.ImageURL},
	}
	extra := make([]string, 0, len(el.Fields))
	for name := range el.Fields {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		rows = append(rows, fieldRow{name: name, value: el.Fields[name]})
	}
	for i := range rows {
		rows[i].desc = element.Lookup(rows[i].name)
	}
	return rows
}

// coerce turns the editor's raw text into the value type the field expects.
// Unparseable input stays a string.
func coerce(desc element.Descriptor, raw string) any {
	switch desc.Kind {
	case element.KindNumber:
		if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return n
		}
	case element.KindBoolean:
		if b, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			return b
		}
	}
	return raw
}
