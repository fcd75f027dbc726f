package world

import "strings"

// ItemKind tags the item variant.
type ItemKind string

const (
	ItemWeapon     ItemKind = "weapon"
	ItemClothing   ItemKind = "clothing"
	ItemConsumable ItemKind = "consumable"
	ItemTrap       ItemKind = "trap"
	ItemContract   ItemKind = "contract"
	ItemKey        ItemKind = "key"
	ItemMisc       ItemKind = "misc"
)

type Item struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Kind ItemKind `json:"kind"`

	Damage int `json:"damage,omitempty"` // weapons
	Armor  int `json:"armor,omitempty"`  // clothing

	UseEffect  *EffectAction `json:"use_effect,omitempty"`  // consumables
	TrapEffect *Effect       `json:"trap_effect,omitempty"` // placeable traps

	UnlocksFeatureID string `json:"unlocks_feature_id,omitempty"` // keys

	Contract *BloodContract `json:"contract,omitempty"` // legacy contract items
}

// NameMatches is the pickup lookup rule: full-name, case-insensitive.
// "sword" does not match "Legendary Sword"; "legendary sword" does.
func (it *Item) NameMatches(name string) bool {
	return strings.EqualFold(it.Name, name)
}

func removeItem(items []*Item, id string) ([]*Item, *Item) {
	for i, it := range items {
		if it.ID == id {
			return append(items[:i:i], items[i+1:]...), it
		}
	}
	return items, nil
}
