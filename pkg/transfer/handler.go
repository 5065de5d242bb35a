package transfer

import (
	"fmt"
	"io"
	"net/http"

	"github.com/kwarta/kwarta/internal/utils"
	"github.com/kwarta/kwarta/pkg/ledger"
	log "github.com/sirupsen/logrus"
)

// maxImportSize bounds the accepted CSV body.
const maxImportSize = 10 << 20

type Handler struct {
	ledger ledger.Service
	clock  utils.Clock
}

func NewHandler(ledgerService ledger.Service, clock utils.Clock) *Handler {
	return &Handler{ledger: ledgerService, clock: clock}
}

// Export streams the full ledger (all months, regardless of filter) as a CSV
// download.
func (handler *Handler) Export(w http.ResponseWriter, r *http.Request) {
	log.Debug("Exporting ledger to CSV")

	content, err := Render(handler.ledger.Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("budget-tracker-%s.csv", utils.Today(handler.clock))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, content); err != nil {
		log.Errorf("could not write CSV response: %v", err)
	}
}

// Import parses a CSV body and replaces the entire ledger with it.
func (handler *Handler) Import(w http.ResponseWriter, r *http.Request) {
	log.Debug("Importing ledger from CSV")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tables, err := Parse(string(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	handler.ledger.ReplaceAll(r.Context(), tables)
	w.WriteHeader(http.StatusOK)
}
