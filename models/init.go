package models

// MigrateModels lists every persisted model in dependency order.
var MigrateModels = []any{
	&User{},
	&Term{},
	&Example{},
	&Version{},
}
