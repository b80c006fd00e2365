package runtime

// PrivateTable stores the private members one class declares, keyed by
// instance. An instance is branded when the class constructor (or the
// class definition, for statics) installs its members.
type PrivateTable struct {
	Class string
	slots map[*Object]map[string]*Property
}

// NewPrivateTable returns an empty table for the named class.
func NewPrivateTable(class string) *PrivateTable {
	return &PrivateTable{Class: class, slots: make(map[*Object]map[string]*Property)}
}

func instanceKey(v any) (*Object, bool) {
	o, ok := v.(ObjectLike)
	if !ok {
		return nil, false
	}

	return o.Base(), true
}

// Add installs a private member on instance.
func (t *PrivateTable) Add(instance any, name string, p *Property) error {
	key, ok := instanceKey(instance)
	if !ok {
		return NewTypeError("Cannot define private member #%s on a non-object", name)
	}
	slots := t.slots[key]
	if slots == nil {
		slots = make(map[string]*Property)
		t.slots[key] = slots
	}
	if _, dup := slots[name]; dup {
		return NewTypeError("Cannot initialize #%s twice on the same object", name)
	}
	slots[name] = p

	return nil
}

func (t *PrivateTable) lookup(instance any, name string, verb string) (*Property, error) {
	if key, ok := instanceKey(instance); ok {
		if p, ok := t.slots[key][name]; ok {
			return p, nil
		}
	}

	return nil, NewTypeError("Cannot %s private member #%s from an object whose class did not declare it", verb, name)
}

// Get reads a private member.
func (t *PrivateTable) Get(instance any, name string) (any, error) {
	p, err := t.lookup(instance, name, "read")
	if err != nil {
		return nil, err
	}
	if p.IsAccessor() {
		if p.Getter == nil {
			return nil, NewTypeError("'#%s' was defined without a getter", name)
		}
		return Call(p.Getter, instance, nil)
	}

	return p.Value, nil
}

// Set writes a private member.
func (t *PrivateTable) Set(instance any, name string, v any) error {
	p, err := t.lookup(instance, name, "write")
	if err != nil {
		return err
	}
	if p.IsAccessor() {
		if p.Setter == nil {
			return NewTypeError("'#%s' was defined without a setter", name)
		}
		_, err := Call(p.Setter, instance, []any{v})
		return err
	}
	if !p.Writable {
		return NewTypeError("Private method #%s is not writable", name)
	}
	p.Value = v

	return nil
}

// Has implements `#name in obj`.
func (t *PrivateTable) Has(instance any, name string) bool {
	key, ok := instanceKey(instance)
	if !ok {
		return false
	}
	_, found := t.slots[key][name]

	return found
}
