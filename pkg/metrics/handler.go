package metrics

import (
	"encoding/json"
	"net/http"
)

type AllocationRowDTO struct {
	Group     string  `json:"group"`
	ActualPct float64 `json:"actualPct"`
	TargetPct float64 `json:"targetPct"`
	Spent     float64 `json:"spent"`
}

type AlertDTO struct {
	Level      string `json:"level"`
	Text       string `json:"text"`
	Suggestion string `json:"suggestion"`
}

type DashboardDTO struct {
	SavingsRate     float64            `json:"savingsRate"`
	EssentialsRatio float64            `json:"essentialsRatio"`
	DebtRatio       float64            `json:"debtRatio"`
	LifestyleRatio  float64            `json:"lifestyleRatio"`
	BudgetAccuracy  float64            `json:"budgetAccuracy"`
	Rollover        float64            `json:"rollover"`
	Allocation      []AllocationRowDTO `json:"allocation"`
	Alerts          []AlertDTO         `json:"alerts"`
}

func DashboardToDTO(d Dashboard) DashboardDTO {
	dto := DashboardDTO{
		SavingsRate:     d.SavingsRate,
		EssentialsRatio: d.EssentialsRatio,
		DebtRatio:       d.DebtRatio,
		LifestyleRatio:  d.LifestyleRatio,
		BudgetAccuracy:  d.BudgetAccuracy,
		Rollover:        d.Rollover,
		Allocation:      make([]AllocationRowDTO, 0, len(d.Allocation)),
		Alerts:          make([]AlertDTO, 0, len(d.Alerts)),
	}
	for _, row := range d.Allocation {
		dto.Allocation = append(dto.Allocation, AllocationRowDTO{
			Group:     string(row.Group),
			ActualPct: row.ActualPct,
			TargetPct: row.TargetPct,
			Spent:     row.Spent,
		})
	}
	for _, alert := range d.Alerts {
		dto.Alerts = append(dto.Alerts, AlertDTO(alert))
	}
	return dto
}

type Handler struct {
	service *DashboardService
}

func NewHandler(service *DashboardService) *Handler {
	return &Handler{service}
}

func (handler *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	dashboard := handler.service.Dashboard(r.Context())

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(DashboardToDTO(dashboard)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
