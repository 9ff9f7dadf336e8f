package element

import "fmt"

// Element is the elemental tag attached to attack power contributions
// and resistance entries. Values are stable and safe as map keys.
type Element int8

const (
	None Element = iota
	Fire
	Water
	Wind
	Earth
	Light
	Dark
	Lightning
	Ice
	Poison
	Holy
	Void
)

var names = map[Element]string{
	None:      "none",
	Fire:      "fire",
	Water:     "water",
	Wind:      "wind",
	Earth:     "earth",
	Light:     "light",
	Dark:      "dark",
	Lightning: "lightning",
	Ice:       "ice",
	Poison:    "poison",
	Holy:      "holy",
	Void:      "void",
}

func (e Element) String() string {
	if s, ok := names[e]; ok {
		return s
	}
	return fmt.Sprintf("element(%d)", int8(e))
}

// Parse resolves an element by its lowercase name.
// Unknown names return None and an error.
func Parse(s string) (Element, error) {
	for e, name := range names {
		if name == s {
			return e, nil
		}
	}
	return None, fmt.Errorf("unknown element %q", s)
}

// All lists every element except None, in declaration order.
func All() []Element {
	return []Element{Fire, Water, Wind, Earth, Light, Dark, Lightning, Ice, Poison, Holy, Void}
}
