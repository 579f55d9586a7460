package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/common/expfmt"
)

// WriteText gathers the service registry and writes it in the Prometheus
// text exposition format.
func WriteText(w io.Writer) error {
	families, err := customRegistry.Gather()
	if err != nil {
		return fmt.Errorf("%w: gather: %w", ErrExportFailed, err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrExportFailed, mf.GetName(), err)
		}
	}
	return nil
}
