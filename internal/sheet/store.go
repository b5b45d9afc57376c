// Package sheet implements the editable table model shared by every
// calculation module: ordered rows addressed by a generated id, one level of
// nested-field updates, and named sub-collections owned by their parent row.
package sheet

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/voltio/voltio-backend/internal/model"
)

var (
	// ErrRowNotFound is returned by id-addressed mutations when no row (or
	// sub-row) matches. Callers that want fire-and-forget edits ignore it.
	ErrRowNotFound = errors.New("sheet: row not found")

	// ErrUnknownModule is returned when a module name has no registered table.
	ErrUnknownModule = errors.New("sheet: unknown module")

	// ErrUnknownCollection is returned when a sub-collection name is not part
	// of the module's row shape.
	ErrUnknownCollection = errors.New("sheet: unknown sub-collection")
)

// Store holds the authoritative in-memory tables for one open project
// session. All mutations are synchronous; the mutex only exists because the
// debounced sync pusher snapshots from a timer goroutine.
type Store struct {
	mu       sync.Mutex
	tables   map[string][]model.Row
	onChange func()
}

// New returns a Store with an empty table per known module.
func New() *Store {
	s := &Store{tables: make(map[string][]model.Row, len(Modules()))}
	for _, m := range Modules() {
		s.tables[m] = []model.Row{}
	}
	return s
}

// OnChange registers fn to run after every successful local mutation.
// ReplaceAll does not fire it: applying a remote snapshot must not schedule
// another outbound push.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// AddRow appends a new row with module-specific defaults and returns a copy
// of it.
func (s *Store) AddRow(module string) (model.Row, error) {
	factory, ok := rowFactories[module]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, module)
	}
	row := factory()

	s.mu.Lock()
	s.tables[module] = append(s.tables[module], row)
	s.mu.Unlock()

	s.notify()
	return cloneRow(row), nil
}

// UpdateRow sets one field of the row addressed by id. A field containing a
// dot addresses a nested object one level deep ("dimensiones.x"); sibling
// nested keys are left untouched.
func (s *Store) UpdateRow(module, id, field string, value any) error {
	s.mu.Lock()
	row := s.findRow(module, id)
	if row == nil {
		s.mu.Unlock()
		return ErrRowNotFound
	}
	if err := setField(row, field, value); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// DeleteRow removes the row addressed by id. Sub-collections go with it
// since they live inside the row.
func (s *Store) DeleteRow(module, id string) error {
	s.mu.Lock()
	rows, ok := s.tables[module]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownModule, module)
	}
	idx := -1
	for i, r := range rows {
		if idOf(r) == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrRowNotFound
	}
	s.tables[module] = append(rows[:idx], rows[idx+1:]...)
	s.mu.Unlock()

	s.notify()
	return nil
}

// AddSubRow appends a default sub-row to the named sub-collection of the row
// addressed by rowID and returns a copy of it.
func (s *Store) AddSubRow(module, rowID, collection string) (model.Row, error) {
	spec, ok := subSpecs[module]
	if !ok || !spec.hasCategory(collection) {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownCollection, module, collection)
	}
	sub := spec.factory()

	s.mu.Lock()
	row := s.findRow(module, rowID)
	if row == nil {
		s.mu.Unlock()
		return nil, ErrRowNotFound
	}
	container, ok := row[spec.container].(map[string]any)
	if !ok {
		container = make(map[string]any)
		row[spec.container] = container
	}
	container[collection] = append(subRows(container[collection]), sub)
	s.mu.Unlock()

	s.notify()
	return cloneRow(sub), nil
}

// UpdateSubRow sets one field of a single sub-row.
func (s *Store) UpdateSubRow(module, rowID, collection, subID, field string, value any) error {
	spec, ok := subSpecs[module]
	if !ok || !spec.hasCategory(collection) {
		return fmt.Errorf("%w: %s/%s", ErrUnknownCollection, module, collection)
	}

	s.mu.Lock()
	row := s.findRow(module, rowID)
	if row == nil {
		s.mu.Unlock()
		return ErrRowNotFound
	}
	container, _ := row[spec.container].(map[string]any)
	var target model.Row
	if container != nil {
		for _, sub := range subRows(container[collection]) {
			if idOf(sub) == subID {
				target = sub
				break
			}
		}
	}
	if target == nil {
		s.mu.Unlock()
		return ErrRowNotFound
	}
	if err := setField(target, field, value); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// DeleteSubRow removes a single sub-row from the named sub-collection.
func (s *Store) DeleteSubRow(module, rowID, collection, subID string) error {
	spec, ok := subSpecs[module]
	if !ok || !spec.hasCategory(collection) {
		return fmt.Errorf("%w: %s/%s", ErrUnknownCollection, module, collection)
	}

	s.mu.Lock()
	row := s.findRow(module, rowID)
	if row == nil {
		s.mu.Unlock()
		return ErrRowNotFound
	}
	container, _ := row[spec.container].(map[string]any)
	if container == nil {
		s.mu.Unlock()
		return ErrRowNotFound
	}
	subs := subRows(container[collection])
	idx := -1
	for i, sub := range subs {
		if idOf(sub) == subID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrRowNotFound
	}
	container[collection] = append(subs[:idx], subs[idx+1:]...)
	s.mu.Unlock()

	s.notify()
	return nil
}

// ReplaceAll overwrites every table from an external snapshot, with no
// diffing or merge. Tables absent from the snapshot become empty. Used when
// accepting a foreign remote update; it deliberately skips the change
// callback.
func (s *Store) ReplaceAll(data model.TableSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range Modules() {
		s.tables[m] = cloneRows(data[m])
	}
}

// Snapshot returns a deep copy of every table, safe to serialize or mutate.
func (s *Store) Snapshot() model.TableSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(model.TableSet, len(s.tables))
	for m, rows := range s.tables {
		out[m] = cloneRows(rows)
	}
	return out
}

// Rows returns a deep copy of one module's table in display order.
func (s *Store) Rows(module string) []model.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRows(s.tables[module])
}

// Len reports the number of rows in one module's table.
func (s *Store) Len(module string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[module])
}

// findRow must be called with s.mu held.
func (s *Store) findRow(module, id string) model.Row {
	for _, r := range s.tables[module] {
		if idOf(r) == id {
			return r
		}
	}
	return nil
}

func idOf(r model.Row) string {
	id, _ := r["id"].(string)
	return id
}

// setField writes a scalar or one-level nested field in place.
func setField(row model.Row, field string, value any) error {
	parent, child, nested := strings.Cut(field, ".")
	if !nested {
		row[field] = value
		return nil
	}
	obj, ok := row[parent].(map[string]any)
	if !ok {
		obj = make(map[string]any)
		row[parent] = obj
	}
	obj[child] = value
	return nil
}

// subRows coerces a stored sub-collection value into a row slice. Values
// decoded from JSON arrive as []any; locally built ones are []model.Row.
func subRows(v any) []model.Row {
	switch t := v.(type) {
	case []model.Row:
		return t
	case []any:
		out := make([]model.Row, 0, len(t))
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func cloneRows(rows []model.Row) []model.Row {
	out := make([]model.Row, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}
	return out
}

func cloneRow(r model.Row) model.Row {
	out := make(model.Row, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneRow(t)
	case []model.Row:
		return cloneRows(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
