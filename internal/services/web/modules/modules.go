// Package modules defines the web module registry.
package modules

import (
	module "github.com/mscwg/catalog/internal/services/web/module"
	"github.com/mscwg/catalog/internal/services/web/modules/auth"
	"github.com/mscwg/catalog/internal/services/web/modules/edit"
	"github.com/mscwg/catalog/internal/services/web/modules/home"
	"github.com/mscwg/catalog/internal/services/web/modules/records"
	"github.com/mscwg/catalog/internal/services/web/modules/search"
)

// Dependencies aliases the shared module dependencies type.
type Dependencies = module.Dependencies

// Mount aliases the module mount contract.
type Mount = module.Mount

// Module aliases the module interface contract.
type Module = module.Module

// PublicModules returns the modules anyone can reach.
func PublicModules() []Module {
	return []Module{
		home.New(),
		records.New(),
		search.New(),
		auth.New(),
	}
}

// ProtectedModules returns the modules that require sign-in.
func ProtectedModules() []Module {
	return []Module{
		edit.New(),
	}
}
