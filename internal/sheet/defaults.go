package sheet

import (
	"github.com/google/uuid"

	"github.com/voltio/voltio-backend/internal/model"
)

// Calculation module names. Each module owns one table in a project's Data.
const (
	ModuleDPMS         = "dpms"
	ModuleLoadsByPanel = "loadsByPanel"
	ModuleThermal      = "thermal"
	ModuleVoltageDrops = "voltageDrops"
	ModuleShortCircuit = "shortCircuit"
)

// ChargeCategories lists the named charge sub-collections of a DPMS row.
var ChargeCategories = []string{"TUG", "IUG", "ATE", "ACU", "TUE", "OCE"}

// Modules returns every known module name in display order.
func Modules() []string {
	return []string{ModuleDPMS, ModuleLoadsByPanel, ModuleThermal, ModuleVoltageDrops, ModuleShortCircuit}
}

// EmptyTables builds the TableSet a freshly created project starts with.
func EmptyTables() model.TableSet {
	ts := make(model.TableSet, len(Modules()))
	for _, m := range Modules() {
		ts[m] = []model.Row{}
	}
	return ts
}

// NewDPMSRow returns a DPMS row with default values and all six charge
// sub-collections empty.
func NewDPMSRow() model.Row {
	cargas := make(map[string]any, len(ChargeCategories))
	for _, c := range ChargeCategories {
		cargas[c] = []model.Row{}
	}
	return model.Row{
		"id":                    uuid.New().String(),
		"denominacionTablero":   "",
		"denominacionAmbiente":  "",
		"dimensiones":           map[string]any{"x": 0.0, "y": 0.0, "h": 0.0},
		"superficie":            0.0,
		"gradoElectrificacion":  "",
		"cargas":                cargas,
	}
}

// NewCharge returns a charge sub-row with default values.
func NewCharge() model.Row {
	return model.Row{
		"id":                      uuid.New().String(),
		"cantidadBocas":           0.0,
		"identificacionCircuito":  "",
		"dpms":                    0.0,
		"fase":                    "",
		"corriente":               0.0,
	}
}

// NewLoadsByPanelRow returns a loads-by-panel row with default values.
func NewLoadsByPanelRow() model.Row {
	return model.Row{
		"id":                    uuid.New().String(),
		"identificacionTablero": "",
		"lineaOCarga":           "",
		"tipoCarga":             "Normal",
		"alimentacion":          "",
		"potenciaAparente":      0.0,
		"cosPhi":                0.0,
	}
}

// NewThermalRow returns a thermal-limit row with default values.
func NewThermalRow() model.Row {
	return model.Row{
		"id":                uuid.New().String(),
		"circuito":          "",
		"corriente":         0.0,
		"conductor":         "Cobre",
		"seccion":           2.5,
		"capacidadPortante": 0.0,
		"temperatura":       40.0,
	}
}

// NewVoltageDropRow returns a voltage-drop row with default values.
func NewVoltageDropRow() model.Row {
	return model.Row{
		"id":              uuid.New().String(),
		"circuito":        "",
		"longitud":        0.0,
		"corriente":       0.0,
		"seccion":         2.5,
		"caidaTension":    0.0,
		"caidaPermisible": 5.0,
	}
}

// NewShortCircuitRow returns a short-circuit row with default values.
func NewShortCircuitRow() model.Row {
	return model.Row{
		"id":          uuid.New().String(),
		"punto":       "",
		"corrienteCC": 0.0,
		"tiempo":      0.2,
		"energia":     0.0,
	}
}

var rowFactories = map[string]func() model.Row{
	ModuleDPMS:         NewDPMSRow,
	ModuleLoadsByPanel: NewLoadsByPanelRow,
	ModuleThermal:      NewThermalRow,
	ModuleVoltageDrops: NewVoltageDropRow,
	ModuleShortCircuit: NewShortCircuitRow,
}

// subSpec describes where a module keeps its sub-collections and how to
// build a default sub-row.
type subSpec struct {
	container  string
	categories []string
	factory    func() model.Row
}

var subSpecs = map[string]subSpec{
	ModuleDPMS: {container: "cargas", categories: ChargeCategories, factory: NewCharge},
}

func (s subSpec) hasCategory(name string) bool {
	for _, c := range s.categories {
		if c == name {
			return true
		}
	}
	return false
}
