package tracking

// FunnelEvent is the event name every funnel submission is recorded under.
const FunnelEvent = "mp_funnel"

// Properties are the event properties as sent to the endpoint. Values must be
// serializable with encoding/json.
type Properties map[string]any

// Funnel identifies a step in a named funnel.
type Funnel struct {
	Name string
	Step int
}

// RecordOptions holds the control flags for Record.
type RecordOptions struct {
	// Funnel, when set, records a funnel step with the event name as goal.
	Funnel *Funnel
	// Event also records the plain event when Funnel is set. Without a
	// Funnel the plain event is always recorded.
	Event bool
}

// Param is an extra query parameter added to a tracking URL.
type Param struct {
	Key   string
	Value string
}

// Params keeps extra query parameters in insertion order.
type Params []Param

// Add returns p with key=value appended.
func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

type payload struct {
	Event      string     `json:"event"`
	Properties Properties `json:"properties"`
}

// present reports whether key is set to a non-nil value.
func (p Properties) present(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

func (p Properties) clone(extra int) Properties {
	c := make(Properties, len(p)+extra)
	for k, v := range p {
		c[k] = v
	}
	return c
}
