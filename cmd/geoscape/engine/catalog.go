package engine

import (
	"fmt"
	"sort"
)

// Catalog resolves item and template IDs.
type Catalog struct {
	weapons     map[string]*WeaponDef
	ammo        map[string]*AmmoDef
	electronics map[string]*ElectronicsDef
	templates   map[string]*Template
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		weapons:     make(map[string]*WeaponDef),
		ammo:        make(map[string]*AmmoDef),
		electronics: make(map[string]*ElectronicsDef),
		templates:   make(map[string]*Template),
	}
}

func (c *Catalog) AddWeapon(w WeaponDef) error {
	if _, ok := c.weapons[w.ID]; ok {
		return fmt.Errorf("%w: weapon %q", ErrDuplicateID, w.ID)
	}
	c.weapons[w.ID] = &w
	return nil
}

func (c *Catalog) AddAmmo(a AmmoDef) error {
	if _, ok := c.ammo[a.ID]; ok {
		return fmt.Errorf("%w: ammo %q", ErrDuplicateID, a.ID)
	}
	c.ammo[a.ID] = &a
	return nil
}

func (c *Catalog) AddElectronics(e ElectronicsDef) error {
	if _, ok := c.electronics[e.ID]; ok {
		return fmt.Errorf("%w: electronics %q", ErrDuplicateID, e.ID)
	}
	c.electronics[e.ID] = &e
	return nil
}

// AddTemplate registers a template after checking that its loadout resolves.
func (c *Catalog) AddTemplate(t Template) error {
	if _, ok := c.templates[t.ID]; ok {
		return fmt.Errorf("%w: template %q", ErrDuplicateID, t.ID)
	}
	if len(t.Weapons) > t.WeaponSlots {
		return fmt.Errorf("template %q: %d weapons for %d slots", t.ID, len(t.Weapons), t.WeaponSlots)
	}
	if len(t.Electronics) > t.ElectronicsSlots {
		return fmt.Errorf("template %q: %d electronics for %d slots", t.ID, len(t.Electronics), t.ElectronicsSlots)
	}
	for _, l := range t.Weapons {
		if _, err := c.Weapon(l.Weapon); err != nil {
			return fmt.Errorf("template %q: %w", t.ID, err)
		}
		if _, err := c.Ammo(l.Ammo); err != nil {
			return fmt.Errorf("template %q: %w", t.ID, err)
		}
	}
	for _, id := range t.Electronics {
		if _, err := c.Electronic(id); err != nil {
			return fmt.Errorf("template %q: %w", t.ID, err)
		}
	}
	c.templates[t.ID] = &t
	return nil
}

func (c *Catalog) Weapon(id string) (*WeaponDef, error) {
	if w, ok := c.weapons[id]; ok {
		return w, nil
	}
	return nil, fmt.Errorf("%w: weapon %q", ErrUnknownItem, id)
}

func (c *Catalog) Ammo(id string) (*AmmoDef, error) {
	if a, ok := c.ammo[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: ammo %q", ErrUnknownItem, id)
}

func (c *Catalog) Electronic(id string) (*ElectronicsDef, error) {
	if e, ok := c.electronics[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: electronics %q", ErrUnknownItem, id)
}

func (c *Catalog) Template(id string) (*Template, error) {
	if t, ok := c.templates[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: template %q", ErrUnknownItem, id)
}

// TemplateIDs lists the registered templates in name order.
func (c *Catalog) TemplateIDs() []string {
	ids := make([]string, 0, len(c.templates))
	for id := range c.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NewUnit builds a unit from a template with its default loadout mounted, full fuel,
// full health and loaded clips. The unit has no ID until it is added to a State.
func (c *Catalog) NewUnit(t *Template, name string) (*Unit, error) {
	u := &Unit{
		Name:        name,
		Kind:        t.Kind,
		Template:    t,
		Weapons:     make([]Slot, t.WeaponSlots),
		Electronics: make([]Slot, t.ElectronicsSlots),
	}
	for i, l := range t.Weapons {
		w, err := c.Weapon(l.Weapon)
		if err != nil {
			return nil, err
		}
		a, err := c.Ammo(l.Ammo)
		if err != nil {
			return nil, err
		}
		u.Weapons[i] = Slot{Weapon: w, Ammo: a, AmmoLeft: a.Clip}
	}
	for i, id := range t.Electronics {
		e, err := c.Electronic(id)
		if err != nil {
			return nil, err
		}
		u.Electronics[i] = Slot{Electronics: e}
	}
	u.RecomputeStats()
	u.Fuel = u.Stats.FuelSize
	u.Damage = u.Stats.Damage
	return u, nil
}
