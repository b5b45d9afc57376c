// Package derive computes read-only display values from row snapshots.
// Every function is pure: same inputs, same output, no mutation of the row.
// Missing or non-numeric inputs coerce to zero so the presentation layer
// never sees NaN or a panic.
package derive

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/voltio/voltio-backend/internal/model"
)

// Network voltages used by the current estimates, line-to-line and
// phase-to-neutral.
const (
	TensionLinea = 380.0
	TensionFase  = 220.0
)

// Num coerces a stored field value to float64, returning 0 for anything that
// is not a usable number.
func Num(v any) float64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Str coerces a stored field value to string, returning "" otherwise.
func Str(v any) string {
	s, _ := v.(string)
	return s
}

// Superficie computes the floor area of a DPMS row from its stored
// dimensions (x·y, in square meters).
func Superficie(row model.Row) float64 {
	dims, _ := row["dimensiones"].(map[string]any)
	return Num(dims["x"]) * Num(dims["y"])
}

// Corriente estimates line current from apparent power in kVA and the feed
// selection: three-phase for RST/RSTN, two-phase (line-to-line) for
// RS/ST/RT, single-phase otherwise.
func Corriente(potenciaAparente float64, alimentacion string) float64 {
	if potenciaAparente <= 0 {
		return 0
	}
	switch alimentacion {
	case "RST", "RSTN":
		return potenciaAparente * 1000 / (math.Sqrt(3) * TensionLinea)
	case "RS", "ST", "RT":
		return potenciaAparente * 1000 / TensionLinea
	default:
		return potenciaAparente * 1000 / TensionFase
	}
}

// CorrienteRow is Corriente applied to a loads-by-panel row snapshot.
func CorrienteRow(row model.Row) float64 {
	return Corriente(Num(row["potenciaAparente"]), Str(row["alimentacion"]))
}

// PotenciaActiva computes active power from apparent power and cos φ.
func PotenciaActiva(potenciaAparente, cosPhi float64) float64 {
	return potenciaAparente * cosPhi
}

// PotenciaActivaRow is PotenciaActiva applied to a loads-by-panel row snapshot.
func PotenciaActivaRow(row model.Row) float64 {
	return PotenciaActiva(Num(row["potenciaAparente"]), Num(row["cosPhi"]))
}

// Fixed renders a value with a fixed number of decimals for table cells.
func Fixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
