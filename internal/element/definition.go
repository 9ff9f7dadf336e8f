package element

// TriggerPredicate decides whether an element's status effect is eligible
// after a hit. It receives the elements that actually contributed damage.
type TriggerPredicate func(present []Element) bool

// Definition describes the authored properties of an element that the
// resolution pipeline consults: which status effect the element carries and
// when it is eligible to fire.
type Definition struct {
	Element      Element
	StatusEffect string // empty if the element applies no status
	Trigger      TriggerPredicate
}

// DefaultTrigger fires when the definition's element is among those that
// contributed damage.
func DefaultTrigger(e Element) TriggerPredicate {
	return func(present []Element) bool {
		for _, p := range present {
			if p == e {
				return true
			}
		}
		return false
	}
}

// Registry holds element definitions keyed by element.
// Read-mostly shared data; populate at load time.
type Registry struct {
	defs map[Element]Definition
}

// NewRegistry creates an empty definition registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[Element]Definition)}
}

// Register stores a definition, replacing any previous one for the element.
// A nil trigger gets the default presence check.
func (r *Registry) Register(def Definition) {
	if def.Trigger == nil {
		def.Trigger = DefaultTrigger(def.Element)
	}
	r.defs[def.Element] = def
}

// Get returns the definition for an element.
// Absent definitions are defined behavior: zero Definition, false.
func (r *Registry) Get(e Element) (Definition, bool) {
	def, ok := r.defs[e]
	return def, ok
}
