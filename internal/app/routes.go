package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Ledger
	r.HandleFunc("/api/ledger", deps.LedgerHandler.Get).Methods("GET")
	r.HandleFunc("/api/ledger", deps.LedgerHandler.ClearAll).Methods("DELETE")
	r.HandleFunc("/api/ledger/filter", deps.LedgerHandler.SetFilter).Methods("PUT")
	r.HandleFunc("/api/ledger/categories", deps.LedgerHandler.ClearCategories).Methods("DELETE")

	// Budget items
	r.HandleFunc("/api/ledger/{table}/items", deps.LedgerHandler.AddItem).Methods("POST")
	r.HandleFunc("/api/ledger/{table}/items/{id}", deps.LedgerHandler.EditItem).Methods("PUT")
	r.HandleFunc("/api/ledger/{table}/items/{id}", deps.LedgerHandler.DeleteItem).Methods("DELETE")
	r.HandleFunc("/api/ledger/{table}/items/{id}/position", deps.LedgerHandler.Reorder).Methods("PUT")
	r.HandleFunc("/api/ledger/{table}/items/{id}/move", deps.LedgerHandler.Move).Methods("PUT")
	r.HandleFunc("/api/ledger/{table}/items/{id}/paid", deps.LedgerHandler.TogglePaid).Methods("POST")

	// Expenses
	r.HandleFunc("/api/ledger/{table}/items/{id}/expenses", deps.LedgerHandler.AddExpense).Methods("POST")
	r.HandleFunc("/api/ledger/{table}/items/{id}/expenses/{index}", deps.LedgerHandler.EditExpense).Methods("PUT")
	r.HandleFunc("/api/ledger/{table}/items/{id}/expenses/{index}", deps.LedgerHandler.DeleteExpense).Methods("DELETE")

	// Funds
	r.HandleFunc("/api/ledger/{table}/funds", deps.LedgerHandler.SetFunds).Methods("PUT")

	// Dashboard
	r.HandleFunc("/api/dashboard", deps.DashboardHandler.Get).Methods("GET")

	// Presets
	r.HandleFunc("/api/presets", deps.PresetHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/presets/{slot}", deps.PresetHandler.SaveCurrent).Methods("PUT")
	r.HandleFunc("/api/presets/{slot}/apply", deps.PresetHandler.Apply).Methods("POST")
	r.HandleFunc("/api/presets/{slot}/reset", deps.PresetHandler.Reset).Methods("POST")

	// Allocation configuration
	r.HandleFunc("/api/allocation", deps.AllocationHandler.Get).Methods("GET")
	r.HandleFunc("/api/allocation", deps.AllocationHandler.Update).Methods("PUT")
	r.HandleFunc("/api/allocation/reset", deps.AllocationHandler.Reset).Methods("POST")

	// CSV transfer
	r.HandleFunc("/api/export", deps.TransferHandler.Export).Methods("GET")
	r.HandleFunc("/api/import", deps.TransferHandler.Import).Methods("POST")

	// Settings
	r.HandleFunc("/api/settings/darkmode", deps.SettingsHandler.GetDarkMode).Methods("GET")
	r.HandleFunc("/api/settings/darkmode", deps.SettingsHandler.SetDarkMode).Methods("PUT")
}
