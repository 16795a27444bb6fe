package ownership

import "github.com/craftshoplabs/craftshop-backend/pkg/enums"

// Entity names a table whose rows carry an owner set.
type Entity string

const (
	EntityProducts   Entity = "products"
	EntityCategories Entity = "categories"
	EntityUsers      Entity = "users"
)

// tableNames whitelists the owner-set tables; fan-out SQL is built from this
// map only, never from caller input.
var tableNames = map[Entity]string{
	EntityProducts:   "products",
	EntityCategories: "categories",
	EntityUsers:      "users",
}

var scopeEntities = map[enums.PermissionScope]Entity{
	enums.ScopeProductRead:  EntityProducts,
	enums.ScopeCategoryRead: EntityCategories,
	enums.ScopeUserRead:     EntityUsers,
}

// EntitiesForScopes maps granted read scopes onto the entities a collaborator
// change must fan out to. Non-read scopes do not widen visibility.
func EntitiesForScopes(scopes []enums.PermissionScope) []Entity {
	seen := map[Entity]bool{}
	out := make([]Entity, 0, len(scopeEntities))
	for _, scope := range scopes {
		entity, ok := scopeEntities[scope]
		if !ok || seen[entity] {
			continue
		}
		seen[entity] = true
		out = append(out, entity)
	}
	return out
}
