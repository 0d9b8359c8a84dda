package element

// Kind classifies a field value. The set is closed: every consumer switches
// over it exhaustively instead of dispatching on field-name strings.
type Kind int

const (
	KindString Kind = iota
	KindText
	KindNumber
	KindBoolean
	KindDate
	KindLink
	KindLinkList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindLink:
		return "link"
	case KindLinkList:
		return "link-list"
	default:
		return "unknown"
	}
}

// Descriptor is the static metadata for one field name. Target is the element
// type a link field points at; empty for non-link kinds and for links whose
// target is the owning world.
type Descriptor struct {
	Kind   Kind
	Target string
}

// IsLink reports whether the field holds one or more element references.
func (d Descriptor) IsLink() bool {
	return d.Kind == KindLink || d.Kind == KindLinkList
}

func link(target string) Descriptor     { return Descriptor{Kind: KindLink, Target: target} }
func linkList(target string) Descriptor { return Descriptor{Kind: KindLinkList, Target: target} }

// registry maps field names to descriptors. Field names are global across the
// 22 element types: a field called "location" points at a location no matter
// which type carries it. Names absent from the registry are plain strings.
var registry = map[string]Descriptor{
	// Base fields shared by every type.
	"id":          {Kind: KindString},
	"name":        {Kind: KindString},
	"description": {Kind: KindText},
	"supertype":   {Kind: KindString},
	"subtype":     {Kind: KindString},
	"image_url":   {Kind: KindString},
	"world":       {Kind: KindLink},

	// Free-text prose fields.
	"physicality":  {Kind: KindText},
	"mentality":    {Kind: KindText},
	"background":   {Kind: KindText},
	"motivations":  {Kind: KindText},
	"appearance":   {Kind: KindText},
	"lifestyle":    {Kind: KindText},
	"scene":        {Kind: KindText},
	"activity":     {Kind: KindText},
	"customs":      {Kind: KindText},
	"story":        {Kind: KindText},
	"history":      {Kind: KindText},
	"doctrine":     {Kind: KindText},
	"declaration":  {Kind: KindText},
	"purpose":      {Kind: KindText},
	"composition":  {Kind: KindText},
	"consequences": {Kind: KindText},

	// Numbers and dates (world-calendar dates are numeric offsets).
	"height":           {Kind: KindNumber},
	"weight":           {Kind: KindNumber},
	"age":              {Kind: KindNumber},
	"charisma":         {Kind: KindNumber},
	"coercion":         {Kind: KindNumber},
	"competence":       {Kind: KindNumber},
	"compassion":       {Kind: KindNumber},
	"creativity":       {Kind: KindNumber},
	"courage":          {Kind: KindNumber},
	"amount":           {Kind: KindNumber},
	"elevation":        {Kind: KindNumber},
	"population":       {Kind: KindNumber},
	"potency":          {Kind: KindNumber},
	"range":            {Kind: KindNumber},
	"birth_date":       {Kind: KindDate},
	"death_date":       {Kind: KindDate},
	"start_date":       {Kind: KindDate},
	"end_date":         {Kind: KindDate},
	"founding_date":    {Kind: KindDate},
	"dissolution_date": {Kind: KindDate},

	// Single-valued references.
	"location":           link("location"),
	"birthplace":         link("location"),
	"parent_location":    link("location"),
	"zone":               link("zone"),
	"parent_zone":        link("zone"),
	"actor":              link("character"),
	"author":             link("character"),
	"founder":            link("character"),
	"leader":             link("character"),
	"parent_object":      link("object"),
	"parent_institution": link("institution"),
	"primary_power":      link("ability"),
	"governing_title":    link("title"),
	"map":                link("map"),

	// Multi-valued references.
	"species":      linkList("species"),
	"traits":       linkList("trait"),
	"abilities":    linkList("ability"),
	"languages":    linkList("language"),
	"family":       linkList("family"),
	"friends":      linkList("character"),
	"rivals":       linkList("character"),
	"characters":   linkList("character"),
	"ancestors":    linkList("character"),
	"members":      linkList("character"),
	"titles":       linkList("title"),
	"objects":      linkList("object"),
	"institutions": linkList("institution"),
	"collectives":  linkList("collective"),
	"creatures":    linkList("creature"),
	"populations":  linkList("collective"),
	"locations":    linkList("location"),
	"zones":        linkList("zone"),
	"events":       linkList("event"),
	"triggers":     linkList("event"),
	"phenomena":    linkList("phenomenon"),
	"laws":         linkList("law"),
	"narratives":   linkList("narrative"),
	"relations":    linkList("relation"),
	"constructs":   linkList("construct"),
	"effects":      linkList("phenomenon"),
	"catalysts":    linkList("object"),
	"empowerments": linkList("ability"),
	"equipment":    linkList("object"),
	"symbolism":    linkList("construct"),
}

// Lookup returns the descriptor for a field name. Unknown names come back as
// plain strings rather than an error so that new server-side fields degrade
// to editable text.
func Lookup(fieldName string) Descriptor {
	if d, ok := registry[fieldName]; ok {
		return d
	}
	return Descriptor{Kind: KindString}
}
