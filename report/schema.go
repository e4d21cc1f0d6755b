package report

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/prodline/errors"
)

// reportSchema is the JSON Schema for the report contract. Downstream
// analyzers read these fields by name; the schema is the machine-checked
// form of that contract.
const reportSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["configuracao", "resultados", "desempenho", "buffer_snapshots"],
  "properties": {
    "run_id": {"type": "string"},
    "configuracao": {
      "type": "object",
      "required": ["capacidade_buffer", "num_produtores", "num_consumidores", "total_timesteps"],
      "properties": {
        "capacidade_buffer": {"type": "integer", "minimum": 1},
        "num_produtores": {"type": "integer", "minimum": 1},
        "num_consumidores": {"type": "integer", "minimum": 1},
        "total_timesteps": {"type": "integer", "minimum": 1}
      }
    },
    "resultados": {
      "type": "object",
      "required": ["total_produzido", "total_consumido", "itens_restantes_buffer", "esperas_produtores", "esperas_consumidores"],
      "properties": {
        "total_produzido": {"type": "integer", "minimum": 0},
        "total_consumido": {"type": "integer", "minimum": 0},
        "itens_restantes_buffer": {"type": "integer", "minimum": 0},
        "esperas_produtores": {"type": "integer", "minimum": 0},
        "esperas_consumidores": {"type": "integer", "minimum": 0}
      }
    },
    "desempenho": {
      "type": "object",
      "required": ["tempo_execucao_segundos", "taxa_producao_por_segundo", "taxa_consumo_por_segundo"],
      "properties": {
        "tempo_execucao_segundos": {"type": "number", "minimum": 0},
        "taxa_producao_por_segundo": {"type": "number", "minimum": 0},
        "taxa_consumo_por_segundo": {"type": "number", "minimum": 0}
      }
    },
    "buffer_snapshots": {
      "type": "array",
      "items": {"type": "integer", "minimum": 0}
    }
  }
}`

// Validate checks the report against the embedded schema and the
// cross-field invariants the schema cannot express.
func (r *Report) Validate() error {
	schemaLoader := gojsonschema.NewStringLoader(reportSchema)
	docLoader := gojsonschema.NewGoLoader(r.normalized())

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return errors.WrapInvalid(err, "Report", "Validate", "run schema validation")
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrReportSchema, strings.Join(msgs, "; ")),
			"Report", "Validate", "schema check")
	}

	// Conservation: every produced unit was consumed or remains buffered.
	if r.Results.TotalProduced != r.Results.TotalConsumed+int64(r.Results.RemainingInBuffer) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: produced %d != consumed %d + remaining %d",
				errors.ErrReportSchema,
				r.Results.TotalProduced, r.Results.TotalConsumed, r.Results.RemainingInBuffer),
			"Report", "Validate", "conservation check")
	}

	// Snapshots can never exceed the buffer capacity.
	for i, s := range r.Snapshots {
		if s > r.Config.BufferCapacity {
			return errors.WrapInvalid(
				fmt.Errorf("%w: snapshot %d value %d exceeds capacity %d",
					errors.ErrReportSchema, i, s, r.Config.BufferCapacity),
				"Report", "Validate", "snapshot bounds check")
		}
	}

	return nil
}
