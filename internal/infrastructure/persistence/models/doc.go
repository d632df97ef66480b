// Package models contains the GORM persistence models and their conversions
// to and from the domain aggregates. Domain types never carry persistence
// concerns; every mapping lives here.
package models

// All returns every persistence model, in a migration-safe order
func All() []any {
	return []any{
		&CarrierModel{},
		&OrderModel{},
		&DispatchSessionModel{},
		&SettlementModel{},
		&MovementModel{},
		&PaymentModel{},
	}
}
