package ledger

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/kwarta/kwarta/pkg/budget"
	"github.com/kwarta/kwarta/pkg/metrics"
	log "github.com/sirupsen/logrus"
)

type ExpenseDTO struct {
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
}

type ItemDTO struct {
	ID         string       `json:"id"`
	Category   string       `json:"category"`
	Date       string       `json:"date"`
	Budget     float64      `json:"budget"`
	Type       string       `json:"type"`
	Expenses   []ExpenseDTO `json:"expenses"`
	Paid       bool         `json:"paid"`
	PaidAt     string       `json:"paidAt,omitempty"`
	Spent      float64      `json:"spent"`
	Variance   float64      `json:"variance"`
	Percentage float64      `json:"percentage"`
	Band       string       `json:"band"`
}

type TotalsDTO struct {
	Budget     float64 `json:"budget"`
	Spent      float64 `json:"spent"`
	Percentage float64 `json:"percentage"`
	Band       string  `json:"band"`
	Available  float64 `json:"available"`
	Remaining  float64 `json:"remaining"`
}

type FundsDTO struct {
	Salary         float64 `json:"salary"`
	PayrollBalance float64 `json:"payrollBalance"`
	CashMoney      float64 `json:"cashMoney"`
}

type TableDTO struct {
	Items  []ItemDTO `json:"items"`
	Totals TotalsDTO `json:"totals"`
	Funds  FundsDTO  `json:"funds"`
}

type LedgerDTO struct {
	Filter string   `json:"filter"`
	First  TableDTO `json:"first"`
	Second TableDTO `json:"second"`
}

func ItemToDTO(item budget.Item) ItemDTO {
	pct := metrics.Percentage(item)
	dto := ItemDTO{
		ID:         item.ID,
		Category:   item.Category,
		Date:       item.Date,
		Budget:     item.Budget,
		Type:       string(item.Kind),
		Expenses:   make([]ExpenseDTO, 0, len(item.Expenses)),
		Paid:       item.Paid,
		PaidAt:     item.PaidAt,
		Spent:      metrics.Spent(item),
		Variance:   metrics.Variance(item),
		Percentage: pct,
		Band:       string(metrics.ItemBand(pct)),
	}
	for _, e := range item.Expenses {
		dto.Expenses = append(dto.Expenses, ExpenseDTO(e))
	}
	return dto
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (handler *Handler) tableDTO(table budget.Table) TableDTO {
	items := handler.service.View(table)
	funds := handler.service.Funds()
	totals := metrics.ComputeTableTotals(items, funds.ForTable(table))

	dto := TableDTO{
		Items: make([]ItemDTO, 0, len(items)),
		Totals: TotalsDTO{
			Budget:     totals.Budget,
			Spent:      totals.Spent,
			Percentage: totals.Percentage,
			Band:       string(totals.Band),
			Available:  totals.Available,
			Remaining:  totals.Remaining,
		},
		Funds: FundsDTO{
			Salary:         funds.Salary.Get(table),
			PayrollBalance: funds.Payroll.Get(table),
			CashMoney:      funds.Cash.Get(table),
		},
	}
	for _, item := range items {
		dto.Items = append(dto.Items, ItemToDTO(item))
	}
	return dto
}

func (handler *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	dto := LedgerDTO{
		Filter: handler.service.Filter(),
		First:  handler.tableDTO(budget.TableFirst),
		Second: handler.tableDTO(budget.TableSecond),
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	log.Debug("Changing month filter")
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Month string `json:"month"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.service.SetFilter(r.Context(), body.Month); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	handler.Get(w, r)
}

func (handler *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	table, ok := parseTable(w, r)
	if !ok {
		return
	}

	item := handler.service.AddItem(r.Context(), table)

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ItemToDTO(item)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) EditItem(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	table, ok := parseTable(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var body struct {
		Category string  `json:"category"`
		Date     string  `json:"date"`
		Budget   float64 `json:"budget"`
		Type     string  `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	edit := ItemEdit{
		Category: body.Category,
		Date:     body.Date,
		Budget:   body.Budget,
		Kind:     budget.Kind(body.Type),
	}
	if err := handler.service.EditItem(r.Context(), table, id, edit); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (handler *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	table, ok := parseTable(w, r)
	if !ok {
		return
	}
	handler.service.DeleteItem(r.Context(), table, mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	table, ok := parseTable(w, r)
	if !ok {
		return
	}

	var body struct {
		FromIndex int `json:"fromIndex"`
		ToIndex   int `json:"toIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	handler.service.Reorder(r.Context(), table, body.FromIndex, body.ToIndex)
	w.WriteHeader(http.StatusOK)
}

func (handler *Handler) Move(w http.ResponseWriter, r *http.Request) {
	table, ok := parseTable(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var body struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch body.Direction {
	case "up":
		handler.service.MoveUp(r.Context(), table, id)
	case "down":
		handler.service.MoveDown(r.Context(), table, id)
	default:
		http.Error(w, "direction must be \"up\" or \"down\"", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (handler *Handler) TogglePaid(w http.ResponseWriter, r *http.Request) {
	table, ok := parseTable(w, r)
	if !ok {
		return
	}
	handler.service.TogglePaid(r.Context(), table, mux.Vars(r)["id"])
	w.WriteHeader(http.StatusOK)
}

func (handler *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	table, ok := parseTable(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var dto ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.service.AddExpense(r.Context(), table, id, budget.Expense(dto)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (handler *Handler) EditExpense(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	table, ok := parseTable(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}

	var dto ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.service.EditExpense(r.Context(), table, id, index, budget.Expense(dto)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (handler *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	table, ok := parseTable(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}

	handler.service.DeleteExpense(r.Context(), table, id, index)
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) SetFunds(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating table funds")
	w.Header().Set("Content-Type", "application/json")
	table, ok := parseTable(w, r)
	if !ok {
		return
	}

	var dto FundsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	handler.service.SetFunds(r.Context(), table, dto.Salary, dto.PayrollBalance, dto.CashMoney)
	w.WriteHeader(http.StatusOK)
}

func (handler *Handler) ClearCategories(w http.ResponseWriter, r *http.Request) {
	log.Debug("Clearing categories")
	handler.service.ClearCategories(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	log.Debug("Clearing all data")
	if err := handler.service.ClearAll(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseTable(w http.ResponseWriter, r *http.Request) (budget.Table, bool) {
	table, ok := budget.ParseTable(mux.Vars(r)["table"])
	if !ok {
		http.Error(w, "unknown table", http.StatusBadRequest)
		return "", false
	}
	return table, true
}

func parseIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "invalid expense index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}
